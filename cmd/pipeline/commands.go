package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/spf13/cobra"

	"translation-pipeline/config"
	"translation-pipeline/domain"
	"translation-pipeline/repositories"
	"translation-pipeline/services"
)

func newExtractCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "OCR uploaded images and route their text",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd.Context(), config.StageExtract, *configPath, func(a *app, t transport, opts []services.Option) (string, services.Handler, error) {
				var reader repositories.ObjectReader
				if a.cfg.StorageBackend == config.StorageMinIO {
					store, err := a.objectStore()
					if err != nil {
						return "", nil, err
					}
					reader = store
				}
				handler := services.NewExtractorService(
					repositories.NewTextractRepository(textract.NewFromConfig(a.aws), reader),
					repositories.NewComprehendRepository(comprehend.NewFromConfig(a.aws)),
					t,
					a.cfg.TranslateTopic,
					a.cfg.ResultTopic,
					a.cfg.TargetLangs,
					opts...,
				)
				return a.cfg.UploadQueue, handler, nil
			})
		},
	}
}

func newTranslateCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "translate",
		Short: "Translate extracted text into every target language",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd.Context(), config.StageTranslate, *configPath, func(a *app, t transport, opts []services.Option) (string, services.Handler, error) {
				handler := services.NewTranslatorService(
					repositories.NewTranslateRepository(translate.NewFromConfig(a.aws)),
					t,
					a.cfg.ResultTopic,
					opts...,
				)
				return a.cfg.TranslateTopic, handler, nil
			})
		},
	}
}

func newPersistCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "persist",
		Short: "Write translated text to the result bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd.Context(), config.StagePersist, *configPath, func(a *app, t transport, opts []services.Option) (string, services.Handler, error) {
				store, err := a.objectStore()
				if err != nil {
					return "", nil, err
				}
				return a.cfg.ResultTopic, services.NewPersisterService(store, a.cfg.ResultBucket, opts...), nil
			})
		},
	}
}

func newTriggerCommand(configPath *string) *cobra.Command {
	var bucket, name string
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Queue an uploaded object for extraction",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := newApp(ctx, config.StageTrigger, *configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.transport()
			if err != nil {
				return err
			}
			ev := domain.StorageEvent{Bucket: bucket, Name: name}
			if err := t.SendEvent(ctx, a.cfg.UploadQueue, ev); err != nil {
				return err
			}
			a.logger.Info("queued object for extraction", "object", ev.URI(), "queue", a.cfg.UploadQueue)
			return nil
		},
	}
	cmd.Flags().StringVar(&bucket, "bucket", "", "Bucket holding the object")
	cmd.Flags().StringVar(&name, "name", "", "Object key")
	_ = cmd.MarkFlagRequired("bucket")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

// stageBuilder wires a stage handler and names the queue it consumes.
type stageBuilder func(a *app, t transport, opts []services.Option) (string, services.Handler, error)

func runStage(parent context.Context, stage config.Stage, configPath string, build stageBuilder) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, stage, configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.transport()
	if err != nil {
		return err
	}
	opts, err := a.options(stage)
	if err != nil {
		return err
	}
	queue, handler, err := build(a, t, opts)
	if err != nil {
		return err
	}

	worker := services.NewWorker(t, queue, handler, services.WithLogger(a.logger))
	return worker.Start(ctx)
}
