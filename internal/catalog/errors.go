package catalog

import "errors"

var errGeneratorDisabled = errors.New("test generation is not configured")
