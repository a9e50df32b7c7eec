package host

import (
	"context"
	"errors"
)

var (
	// ErrNoConnection is returned when the host application cannot be reached.
	ErrNoConnection = errors.New("no connection to host application")
	// ErrNoProject is returned when the host has no active project.
	ErrNoProject = errors.New("no project activated")
	// ErrNotFound is returned when a looked up object does not exist.
	ErrNotFound = errors.New("object not found")
)

// Well known folder kinds and study case classes.
const (
	FolderNetworkData = "netdat"

	ClassDesktop      = "SetDesktop"
	ClassResultExport = "ComRes"
	ClassResults      = "ElmRes"
	ClassPlotPage     = "GrpPage"
	ClassWriteCommand = "ComWr"
)

// Application is the root automation handle.
type Application interface {
	// ActiveProject returns the active project or nil when none is active.
	ActiveProject() (Object, error)
	// ProjectFolder returns a folder of the active project by kind.
	ProjectFolder(kind string) (Object, error)
	// FromStudyCase returns the first object of the given class in the
	// active study case, creating it when the host does so.
	FromStudyCase(class string) (Object, error)
	// CurrentScript returns the script the run was triggered from.
	CurrentScript() (Script, error)
}

// Object is a handle on a host object.
type Object interface {
	Name() string
	Class() string
	Attribute(name string) (any, error)
	// SetAttribute assigns value to the attribute. Value may be another
	// Object for reference attributes.
	SetAttribute(name string, value any) error
	// Execute runs a command object and returns the host's result code.
	// Zero means success.
	Execute() (int, error)
	// Contents lists child objects matching a name pattern such as "*.GrpPage".
	Contents(pattern string, recursive bool) ([]Object, error)
	// Search resolves a backslash separated path below this object.
	Search(path string) (Object, error)
	// Show brings a graphics page to the front.
	Show() error
	AutoScaleX() error
	AutoScaleY() error
}

// Script gives access to the input parameters of a host script.
type Script interface {
	StringParam(name string) (string, error)
	FloatParam(name string) (float64, error)
}

// Connector establishes a session with a host application.
type Connector interface {
	Connect(ctx context.Context) (Application, error)
}
