package repositories

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/smithy-go/middleware"
)

var testAWSConfig = aws.Config{Region: "us-east-1"}

// stubAWSMiddleware answers every operation of a client with the result of
// fn, called with the operation input. The request never leaves the process.
func stubAWSMiddleware(fn func(params interface{}) (interface{}, error)) func(*middleware.Stack) error {
	return func(stack *middleware.Stack) error {
		return stack.Initialize.Add(
			middleware.InitializeMiddlewareFunc("StubAWS", func(ctx context.Context, in middleware.InitializeInput, next middleware.InitializeHandler) (middleware.InitializeOutput, middleware.Metadata, error) {
				out, err := fn(in.Parameters)
				return middleware.InitializeOutput{Result: out}, middleware.Metadata{}, err
			}),
			middleware.Before,
		)
	}
}

// Mock middleware to return specific output or error
func mockAWSMiddleware(output interface{}, err error) func(*middleware.Stack) error {
	return stubAWSMiddleware(func(interface{}) (interface{}, error) {
		return output, err
	})
}
