package phantommail

import "fmt"

// SelectionError reports a category that no branch handles.
type SelectionError struct {
	Category Category
	Err      error
}

func (e *SelectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("select %s: %v", e.Category, e.Err)
	}
	return fmt.Sprintf("no branch for category %s", e.Category)
}

func (e *SelectionError) Unwrap() error { return e.Err }

// GenerationError reports a data producer or model failure inside a branch.
type GenerationError struct {
	Category Category
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate %s email: %v", e.Category, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// RenderError reports a failure converting attachment HTML to a document.
type RenderError struct {
	Category Category
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s attachment: %v", e.Category, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError reports a transport failure while sending.
type DeliveryError struct {
	Transport string
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Transport == "" {
		return fmt.Sprintf("deliver email: %v", e.Err)
	}
	return fmt.Sprintf("deliver email via %s: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
