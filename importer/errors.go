package importer

import "errors"

// Error taxonomy surfaced by the controller, distinct from the xmlproc and
// wxr error taxonomies it wraps.
var (
	ErrInvalidFileType      = errors.New("importer: invalid_file_type")
	ErrImportFile           = errors.New("importer: import_file_error")
	ErrWXRParse             = errors.New("importer: WXR_parse_error")
	ErrUploadDir            = errors.New("importer: upload_dir_error")
	ErrAttachmentProcessing = errors.New("importer: attachment_processing_error")
)
