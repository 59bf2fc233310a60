package domain

const (
	// UndeterminedLanguage is reported by language detection when no
	// dominant language could be found.
	UndeterminedLanguage = "und"

	// ResultKeySuffix is appended to the source filename to build the
	// object key of the persisted result.
	ResultKeySuffix = "_translated.txt"

	ResultContentType = "text/plain; charset=utf-8"

	// Job Statuses
	StatusNoText     = "NO_TEXT"
	StatusExtracted  = "EXTRACTED"
	StatusTranslated = "TRANSLATED"
	StatusCompleted  = "COMPLETED"

	// Payload field names
	FieldText        = "text"
	FieldFilename    = "filename"
	FieldSourceLang  = "src_lang"
	FieldTargetLangs = "lang"
	FieldBucket      = "bucket"
	FieldName        = "name"
	FieldData        = "data"

	s3TestEvent = "s3:TestEvent"
)
