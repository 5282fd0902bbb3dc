package serviceinterfaces

import "context"

// WasteClassifier labels an attached photo with a waste/object class.
type WasteClassifier interface {
	// ClassifyImage returns the top label for the image bytes, or one of the
	// classification sentinels when no image is given or the model fails
	ClassifyImage(ctx context.Context, image []byte) string
}

// IssueClassifier suggests an issue category from the report description.
type IssueClassifier interface {
	// SuggestCategory returns the best-scoring category for the description,
	// or a classification sentinel when the model fails
	SuggestCategory(ctx context.Context, description string) string
}
