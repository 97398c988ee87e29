package meta

// DeclarationFormatVersion identifies the set of recognized declaration
// fields, reported by the version command.
const (
	DeclarationFormatVersion = 1
)

// Following variables are filled in by the linker
var (
	Version   string
	GitCommit string
	BuildDate string
)

type VersionOutput struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`

	DeclarationFormatVersion int `json:"declarationFormatVersion"`
}

func GetVersion() VersionOutput {
	return VersionOutput{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,

		DeclarationFormatVersion: DeclarationFormatVersion,
	}
}
