// Package verrors defines the error kinds surfaced by the volume decoders.
//
// Grounded in dargueta-disko/errors/errors.go's customDriverError: a message
// plus a wrapped cause, unwrapped via errors.Unwrap. Extended here with a
// Kind so callers can switch on the failure category without string matching.
package verrors

import "fmt"

// Kind classifies a volume error so callers can switch on failure category
// instead of matching error strings.
type Kind int

const (
	// KindIO covers a failed read against the underlying BlockDevice.
	KindIO Kind = iota
	// KindNotThisFilesystem is returned when a boot-sector magic does not
	// match the decoder being probed.
	KindNotThisFilesystem
	// KindCorruptBootSector marks a required boot-sector field out of range.
	KindCorruptBootSector
	// KindCorruptChain marks a FAT chain that reached a reserved/free
	// cluster mid-chain, or exceeded the volume's cluster count.
	KindCorruptChain
	// KindCorruptRecord marks an MFT record missing a required attribute,
	// or a FAT directory entry that failed to parse.
	KindCorruptRecord
	// KindNotFound marks a missing path component.
	KindNotFound
	// KindNotADirectory marks a non-terminal path component that isn't a directory.
	KindNotADirectory
	// KindIsADirectory marks a read_file call against a directory entry.
	KindIsADirectory
	// KindUnsupportedVolume marks a boot sector matching neither decoder.
	KindUnsupportedVolume
	// KindNotText marks invalid UTF-8 content passed to read_text_file.
	KindNotText
	// KindUnsupportedLayout marks a non-resident NTFS attribute whose
	// declared size exceeds what the first data run covers.
	KindUnsupportedLayout
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindNotThisFilesystem:
		return "NotThisFilesystem"
	case KindCorruptBootSector:
		return "CorruptBootSector"
	case KindCorruptChain:
		return "CorruptChain"
	case KindCorruptRecord:
		return "CorruptRecord"
	case KindNotFound:
		return "NotFound"
	case KindNotADirectory:
		return "NotADirectory"
	case KindIsADirectory:
		return "IsADirectory"
	case KindUnsupportedVolume:
		return "UnsupportedVolume"
	case KindNotText:
		return "NotText"
	case KindUnsupportedLayout:
		return "UnsupportedLayout"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type returned by the volume decoders.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Cause.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, so callers can
// use errors.Is(err, verrors.New(verrors.KindNotFound, "")).
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// New builds an Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an Error that wraps a lower-level cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
