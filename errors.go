package regscope

import "errors"

var (
	// ErrNoStructuredData is returned when no JSON object could be
	// recovered from an LLM response. The extractor is never retried
	// internally; the caller may re-invoke the upstream LLM call.
	ErrNoStructuredData = errors.New("regscope: no structured data found in response")

	// ErrMissingIdentifier is returned when a diagram node or edge record
	// lacks its mandatory id/source/target field.
	ErrMissingIdentifier = errors.New("regscope: diagram element missing mandatory identifier")

	// ErrRegulationNotFound is returned when a regulation name is unknown.
	ErrRegulationNotFound = errors.New("regscope: regulation not found")

	// ErrUploadNotFound is returned when an upload ID does not exist.
	ErrUploadNotFound = errors.New("regscope: upload not found")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("regscope: unsupported document format")

	// ErrParsingFailed is returned when document text extraction fails.
	ErrParsingFailed = errors.New("regscope: parsing failed")

	// ErrLLMRequestFailed is returned when an LLM request fails.
	ErrLLMRequestFailed = errors.New("regscope: LLM request failed")

	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("regscope: store is closed")

	// ErrMissingArtifact is returned when a cycle artifact (summary or
	// graph) required by an operation has not been generated yet.
	ErrMissingArtifact = errors.New("regscope: required artifact missing for upload")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("regscope: invalid configuration")

	// ErrPublishFailed is returned when Confluence page creation fails.
	ErrPublishFailed = errors.New("regscope: confluence publish failed")
)
