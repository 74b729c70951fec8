package recipe

// Builtin returns a registry populated with the built-in recipes for the
// in-situ visualization stack.
func Builtin() *Registry {
	r := NewRegistry()
	r.mustRegister(ascent())
	r.mustRegister(&Package{
		Name:        "conduit",
		Description: "Simplified data exchange for HPC simulations",
		Homepage:    "https://github.com/LLNL/conduit",
		Variants: map[string]Variant{
			"shared": {Default: true, Description: "Build Conduit as shared libs"},
		},
	})
	r.mustRegister(&Package{
		Name:        "cmake",
		Description: "A cross-platform, open-source build system",
		Homepage:    "https://www.cmake.org",
	})
	r.mustRegister(&Package{
		Name:        "python",
		Description: "The Python programming language",
		Homepage:    "https://www.python.org",
		Variants: map[string]Variant{
			"shared": {Default: true, Description: "Build python as a shared library"},
		},
	})
	r.mustRegister(&Package{
		Name:        "py-numpy",
		Description: "Array processing for numbers, strings, records and objects",
		Homepage:    "https://numpy.org",
		Extends:     "python",
		Variants: map[string]Variant{
			"blas":   {Default: true, Description: "Link against an optimized BLAS"},
			"lapack": {Default: true, Description: "Link against an optimized LAPACK"},
		},
	})
	r.mustRegister(&Package{
		Name:        "py-mpi4py",
		Description: "MPI bindings for Python",
		Homepage:    "https://github.com/mpi4py/mpi4py",
		Extends:     "python",
		Dependencies: []Dependency{
			{Name: "mpi"},
			{Name: "python"},
		},
	})
	r.mustRegister(&Package{
		Name:        "py-sphinx",
		Description: "The Sphinx documentation generator",
		Homepage:    "https://www.sphinx-doc.org",
		Extends:     "python",
		Dependencies: []Dependency{
			{Name: "python"},
		},
	})
	r.mustRegister(&Package{
		Name:        "doxygen",
		Description: "Documentation system for C, C++ and other languages",
		Homepage:    "https://www.doxygen.nl",
	})
	r.mustRegister(&Package{
		Name:        "mpi",
		Description: "A message-passing interface implementation",
	})
	r.mustRegister(&Package{
		Name:        "vtkh",
		Description: "Scientific visualization algorithms for emerging architectures",
		Homepage:    "https://github.com/Alpine-DAV/vtk-h",
		Variants: map[string]Variant{
			"cuda": {Default: false, Description: "Build VTK-h CUDA backends"},
		},
		Dependencies: []Dependency{
			{Name: "vtkm"},
		},
	})
	r.mustRegister(&Package{
		Name:        "vtkm",
		Description: "Toolkit of scientific visualization algorithms for many-core processors",
		Homepage:    "https://m.vtk.org",
	})
	r.mustRegister(&Package{
		Name:        "tbb",
		Description: "Threading Building Blocks shared-memory parallelism library",
		Homepage:    "https://www.threadingbuildingblocks.org",
	})
	r.mustRegister(&Package{
		Name:        "adios",
		Description: "The Adaptable IO System for exascale data management",
		Homepage:    "https://www.olcf.ornl.gov/center-projects/adios",
	})
	return r
}

// ascent is the build recipe for Ascent, the many-core capable lightweight
// in situ visualization and analysis infrastructure for multi-physics HPC
// simulations.
func ascent() *Package {
	return &Package{
		Name:        "ascent",
		Description: "Many-core capable lightweight in situ visualization and analysis infrastructure",
		Homepage:    "https://github.com/Alpine-DAV/ascent",

		Git:          "https://github.com/Alpine-DAV/ascent.git",
		Branch:       "develop",
		Submodules:   true,
		SourceSubdir: "src",

		Maintainers: []string{"cyrush"},

		Variants: map[string]Variant{
			"shared": {Default: true, Description: "Build Ascent as shared libs"},
			"cmake":  {Default: true, Description: "Build CMake (if off, attempt to use cmake from PATH)"},
			"mpi":    {Default: true, Description: "Build Ascent MPI support"},
			"python": {Default: true, Description: "Build Ascent python support"},
			"vtkh":   {Default: true, Description: "Build VTK-h filter and rendering support"},
			"tbb":    {Default: true, Description: "Build TBB support"},
			"cuda":   {Default: false, Description: "Build CUDA support"},
			"adios":  {Default: true, Description: "Build ADIOS filter support"},
			"doc":    {Default: false, Description: "Build Ascent's documentation"},
		},

		Dependencies: []Dependency{
			{Name: "cmake", When: "+cmake", Constraint: ">= 3.9", Type: DepBuild},
			{Name: "conduit"},

			// A shared python is required: linking a static python lib
			// causes duplicate interpreter state when compiled modules run.
			{Name: "python", Variants: map[string]bool{"shared": true}},
			{Name: "py-numpy", When: "+python",
				Variants: map[string]bool{"blas": false, "lapack": false},
				Type:     DepBuild | DepRun},

			{Name: "mpi", When: "+mpi"},
			{Name: "py-mpi4py", When: "+python+mpi"},

			{Name: "vtkh", When: "+vtkh"},
			{Name: "vtkh", When: "+vtkh+cuda", Variants: map[string]bool{"cuda": true}},
			{Name: "tbb", When: "+vtkh+tbb"},
			{Name: "adios", When: "+adios"},

			{Name: "py-sphinx", When: "+python+doc", Type: DepBuild},
			{Name: "doxygen", When: "+doc", Type: DepBuild},
		},

		Extends:     "python",
		ExtendsWhen: "+python",
	}
}
