package tools

import (
	"flag"
	"log"
)

const (
	CommandIndex  = "index"
	CommandVerify = "verify"
)

type FlagsGlobal struct {
	Help    *bool `json:"help"`
	Version *bool `json:"version"`
}

type TilerFlags struct {
	Input                     *string `json:"input"`
	ZOffset                   *float64
	FolderProcessing          *bool
	RecursiveFolderProcessing *bool
	Silent                    *bool
	LogTimestamp              *bool
}

type FlagsForCommandIndex struct {
	TilerFlags
	Output         *string
	DensityLimit   *int
	MaxLevel       *int
	GlobalShift    *bool
	ShiftReference *string
	Sampling       *string
	Precision      *string
	ConverterPath  *string
	NumWorkers     *int
	Help           *bool
	Version        *bool
}

type FlagsForCommandVerify struct {
	TilerFlags
	Digests *bool
}

func ParseFlagsGlobal() FlagsGlobal {
	help := defineBoolFlag("help", "h", false, "Displays this help.")
	version := defineBoolFlag("version", "v", false, "Displays the version of pcd_lod_tiler.")

	flag.Parse()

	return FlagsGlobal{
		Help:    help,
		Version: version,
	}
}

func ParseFlagsForCommandIndex(args []string) FlagsForCommandIndex {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-index", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the input point cloud file/folder.")
	output := defineStringFlagCommand(flagCommand, "output", "o", "", "Specifies the output folder where to write the LOD data.")
	densityLimit := defineIntFlagCommand(flagCommand, "density", "d", 16384, "Maximum number of points per octree cell before it is subdivided.")
	maxLevel := defineIntFlagCommand(flagCommand, "maxlevel", "l", 10, "Maximum octree subdivision depth. Cells at this level are never subdivided, regardless of density.")
	globalShift := defineBoolFlagCommand(flagCommand, "shift", "g", false, "Subtracts the cloud minimum corner from all coordinates before building and records the offset in the index. Use for geodetically large coordinates.")
	shiftReference := defineStringFlagCommand(flagCommand, "shift-ref", "", "", "Reference point 'x,y,z' to subtract instead of the cloud minimum corner. Implies -shift.")
	sampling := defineStringFlagCommand(flagCommand, "sampling", "", "UNIFORM", "Preview sampling strategy for subdivided cells, can be 'UNIFORM' or 'POISSON'. 'UNIFORM' keeps every n-th point, 'POISSON' thins points to an even spacing.")
	precision := defineStringFlagCommand(flagCommand, "precision", "", "STD", "Raster precision mode, can be 'STD' or 'QUAD'. 'QUAD' additionally emits a raster carrying 32 bit fixed point coordinates split over four quadrants.")
	zOffset := defineFloat64FlagCommand(flagCommand, "zoffset", "z", 0, "Vertical offset to apply to points, in meters.")
	converterPath := defineStringFlagCommand(flagCommand, "converter", "c", "", "Path to an external converter binary invoked to pre-convert unsupported input formats to ascii xyz.")
	numWorkers := defineIntFlagCommand(flagCommand, "workers", "w", 0, "Number of parallel raster workers. Defaults to the number of CPUs.")
	folderProcessing := defineBoolFlagCommand(flagCommand, "folder", "f", false, "Enables processing of all supported files from input folder. Input must be a folder if specified")
	recursiveFolderProcessing := defineBoolFlagCommand(flagCommand, "recursive", "r", false, "Enables recursive lookup for input files inside the subfolders")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")
	help := defineBoolFlagCommand(flagCommand, "help", "h", false, "Displays this help.")
	version := defineBoolFlagCommand(flagCommand, "version", "v", false, "Displays the version of pcd_lod_tiler.")

	flagCommand.Parse(args)

	return FlagsForCommandIndex{
		TilerFlags: TilerFlags{
			Input:                     input,
			ZOffset:                   zOffset,
			FolderProcessing:          folderProcessing,
			RecursiveFolderProcessing: recursiveFolderProcessing,
			Silent:                    silent,
			LogTimestamp:              logTimestamp,
		},
		Output:         output,
		DensityLimit:   densityLimit,
		MaxLevel:       maxLevel,
		GlobalShift:    globalShift,
		ShiftReference: shiftReference,
		Sampling:       sampling,
		Precision:      precision,
		ConverterPath:  converterPath,
		NumWorkers:     numWorkers,
		Help:           help,
		Version:        version,
	}
}

func ParseFlagsForCommandVerify(args []string) FlagsForCommandVerify {
	log.Println(FmtJSONString(args))

	flagCommand := flag.NewFlagSet("command-verify", flag.ExitOnError)

	input := defineStringFlagCommand(flagCommand, "input", "i", "", "Specifies the LOD folder to verify, as produced by the index command.")
	digests := defineBoolFlagCommand(flagCommand, "digests", "", false, "Prints a content digest per verified file and a combined run digest.")

	silent := defineBoolFlagCommand(flagCommand, "silent", "s", false, "Use to suppress all the non-error messages.")
	logTimestamp := defineBoolFlagCommand(flagCommand, "timestamp", "t", false, "Adds timestamp to log messages.")

	zOffset := 0.0
	folderProcessing := false
	recursiveFolderProcessing := false

	flagCommand.Parse(args)

	return FlagsForCommandVerify{
		TilerFlags: TilerFlags{
			Input:                     input,
			ZOffset:                   &zOffset,
			FolderProcessing:          &folderProcessing,
			RecursiveFolderProcessing: &recursiveFolderProcessing,
			Silent:                    silent,
			LogTimestamp:              logTimestamp,
		},
		Digests: digests,
	}
}

func defineBoolFlag(name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flag.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name {
		flag.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineStringFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue string, usage string) *string {
	var output string
	flagCommand.StringVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.StringVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineIntFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue int, usage string) *int {
	var output int
	flagCommand.IntVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.IntVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}

	return &output
}

func defineBoolFlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue bool, usage string) *bool {
	var output bool
	flagCommand.BoolVar(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.BoolVar(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}

func defineFloat64FlagCommand(flagCommand *flag.FlagSet, name string, shortHand string, defaultValue float64, usage string) *float64 {
	var output float64
	flagCommand.Float64Var(&output, name, defaultValue, usage)
	if shortHand != name && shortHand != "" {
		flagCommand.Float64Var(&output, shortHand, defaultValue, usage+" (shorthand for "+name+")")
	}
	return &output
}
