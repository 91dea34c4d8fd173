// Package transform calls the external AI image-edit service. The
// service is treated as opaque and unreliable: any failure or empty
// result is reported as an error and never retried here.
package transform

import "context"

// StylePrompt is the fixed instruction sent with every image.
const StylePrompt = `Transform this uploaded image into a Norwegian national romantic style with traditional rosemaling decorative elements. Add beautiful rosemaling patterns around the edges and enhance the colors to match the traditional Norwegian aesthetic. Keep the main subject but make it more artistic and decorative in the style of Norwegian folk art.`

// Transformer turns an uploaded image into its stylized variant,
// reporting the MIME type of the result.
type Transformer interface {
	Transform(ctx context.Context, image []byte, contentType string) ([]byte, string, error)
}
