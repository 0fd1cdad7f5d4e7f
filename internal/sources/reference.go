package sources

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Kind discriminates the reference variants.
type Kind int

const (
	// KindInline is an embedded byte payload with a declared MIME type.
	KindInline Kind = iota
	// KindRemote is an absolute http/https pointer.
	KindRemote
	// KindStagedPath is a bare local path. This is a best-effort legacy
	// form, not a recommended contract.
	KindStagedPath
)

func (k Kind) String() string {
	switch k {
	case KindInline:
		return "inline"
	case KindRemote:
		return "remote"
	case KindStagedPath:
		return "staged_path"
	default:
		return "unknown"
	}
}

// Reference is one immutable input pointer: an inline payload, a remote URL,
// or an already-staged local path.
type Reference struct {
	kind    Kind
	payload []byte
	mime    string
	url     string
	path    string
}

// Inline builds a reference around an embedded payload and its declared MIME type.
func Inline(payload []byte, declaredMIME string) Reference {
	return Reference{kind: KindInline, payload: payload, mime: strings.TrimSpace(declaredMIME)}
}

// Remote builds a reference around an absolute URL.
func Remote(url string) Reference {
	return Reference{kind: KindRemote, url: strings.TrimSpace(url)}
}

// StagedPath builds a reference around a local path that needs no resolution.
func StagedPath(path string) Reference {
	return Reference{kind: KindStagedPath, path: strings.TrimSpace(path)}
}

// Kind returns the variant of this reference.
func (r Reference) Kind() Kind { return r.kind }

// Describe returns a short loggable form that never embeds payload bytes.
func (r Reference) Describe() string {
	switch r.kind {
	case KindInline:
		return fmt.Sprintf("inline(%s, %d bytes)", r.mime, len(r.payload))
	case KindRemote:
		return "remote(" + r.url + ")"
	default:
		return "path(" + r.path + ")"
	}
}

// Parse classifies one trigger-endpoint entry. Data URIs become inline
// payloads, http/https pointers become remote references, and anything else
// falls back to a staged local path.
func Parse(entry string) (Reference, error) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return Reference{}, fmt.Errorf("%w: empty reference", ErrInvalidReference)
	}
	if strings.HasPrefix(entry, "data:") {
		return parseDataURI(entry)
	}
	if strings.HasPrefix(entry, "http://") || strings.HasPrefix(entry, "https://") {
		return Remote(entry), nil
	}
	return StagedPath(entry), nil
}

func parseDataURI(uri string) (Reference, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, data, found := strings.Cut(rest, ",")
	if !found {
		return Reference{}, fmt.Errorf("%w: malformed data URI", ErrInvalidReference)
	}
	if mime, ok := strings.CutSuffix(meta, ";base64"); ok {
		payload, err := base64.StdEncoding.DecodeString(data)
		if err != nil {
			return Reference{}, fmt.Errorf("%w: decode data URI payload: %s", ErrInvalidReference, err)
		}
		return Inline(payload, mime), nil
	}
	// Without the base64 marker the payload is URL-escaped (RFC 2397).
	unescaped, err := url.PathUnescape(data)
	if err != nil {
		return Reference{}, fmt.Errorf("%w: unescape data URI payload: %s", ErrInvalidReference, err)
	}
	return Inline([]byte(unescaped), meta), nil
}
