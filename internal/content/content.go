// Package content decides what an inbound message is asking the bot to
// explain: an image, a piece of text, or nothing.
package content

// Kind enumerates the resolvable content variants.
type Kind int

const (
	// KindNone means the message carries nothing to explain.
	KindNone Kind = iota
	// KindImage means image bytes were resolved.
	KindImage
	// KindText means a text string was resolved.
	KindText
)

// Content is the single resolved payload handed to the Explainer.
// Exactly one of the variants is populated, per Kind.
type Content struct {
	Kind Kind
	Data []byte // image bytes, KindImage only
	MIME string // image MIME type, KindImage only
	Text string // KindText only
}

// None is the empty resolution result.
var None = Content{Kind: KindNone}

// Image wraps image bytes as resolved content.
func Image(data []byte, mime string) Content {
	return Content{Kind: KindImage, Data: data, MIME: mime}
}

// Text wraps a text string as resolved content.
func Text(s string) Content {
	return Content{Kind: KindText, Text: s}
}
