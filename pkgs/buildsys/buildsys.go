package buildsys

// BuildSystem captures the shared lifecycle of build helpers.
// Implementations add their own configuration extras.
type BuildSystem interface {
	// Use injects an installed dependency prefix into the build environment.
	Use(prefix string)

	// Basic paths.
	Source(dir string)
	InstallDir(dir string)

	// Environment helper.
	Env(key, val string)

	// Lifecycle.
	Configure(args ...string) error
	Build(args ...string) error
	Install(args ...string) error

	// Where artifacts land.
	OutputDir() string
}
