package bugs

import "errors"

var (
	ErrNotFound     = errors.New("bug dataset not found")
	ErrBlobNotFound = errors.New("blob not found")
	ErrEmptyUpload  = errors.New("uploaded file is empty")
)
