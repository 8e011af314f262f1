package build

// StageName is a strongly-typed identifier for a compile run stage. All
// canonical stages are declared as constants here for compile-time safety.
type StageName string

// Canonical stage names.
const (
	StageResolve     StageName = "resolve"
	StageFingerprint StageName = "fingerprint"
	StageCompile     StageName = "compile"
	StagePlace       StageName = "place"
	StageVerifyLinks StageName = "verify_links"
)

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}
