// Package errs defines the fatal error taxonomy used during core startup,
// resume and allocation. Every kind here is fatal per spec: the caller
// (cmd/corerunner, cmd/coreserver) logs and aborts; the library itself
// never calls os.Exit or panics on these paths.
package errs

import "fmt"

// Kind identifies which documented failure mode produced a CoreError.
type Kind int

const (
	// KindStartup covers header parse, region resolution, or simulation
	// interface init failure.
	KindStartup Kind = iota
	// KindOOM covers source-table or recording-buffer allocation failure.
	KindOOM
	// KindResume covers a failed parameter-block re-read at resume.
	KindResume
)

func (k Kind) String() string {
	switch k {
	case KindStartup:
		return "startup"
	case KindOOM:
		return "oom"
	case KindResume:
		return "resume"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// CoreError is a fatal, typed error carrying the stage it occurred in.
type CoreError struct {
	Kind    Kind
	Message string
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("core error [%s]: %s", e.Kind, e.Message)
}

// Is lets errors.Is(err, &CoreError{Kind: KindOOM}) match by kind alone.
func (e *CoreError) Is(target error) bool {
	other, ok := target.(*CoreError)
	if !ok {
		return false
	}
	return other.Kind == e.Kind
}

// Startup wraps a startup-time failure.
func Startup(format string, args ...any) error {
	return &CoreError{Kind: KindStartup, Message: fmt.Sprintf(format, args...)}
}

// OOM wraps an allocation failure.
func OOM(format string, args ...any) error {
	return &CoreError{Kind: KindOOM, Message: fmt.Sprintf(format, args...)}
}

// Resume wraps a resume-time reload failure.
func Resume(format string, args ...any) error {
	return &CoreError{Kind: KindResume, Message: fmt.Sprintf(format, args...)}
}
