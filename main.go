/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/ecopia-map/pcd_lod_tiler/internal/tiler"
	"github.com/ecopia-map/pcd_lod_tiler/pkg"
	"github.com/ecopia-map/pcd_lod_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/pcd_lod_tiler/tools"
)

const VERSION = "1.0.1"

const logo = `
   _ __             _       _              _       _   _ _
  | '_ \   ___   __| |    | |   ___    __| |    | |_(_) | ___ _ __
  | |_) | / __| / _  |    | |  / _ \  / _  |    | __| | |/ _ \ '__|
  | .__/ | (__ | (_| |    | | | (_) || (_| |    | |_| | |  __/ |
  |_|     \___| \__,_|    |_|  \___/  \__,_|     \__|_|_|\___|_|
          A point cloud LOD pyramid generator written in golang
          Copyright YYYY - the pcd_lod_tiler authors
`

func main() {
	log.SetPrefix("[pcd-lod] ")
	log.SetFlags(log.LUTC | log.Ldate | log.Lmicroseconds | log.Lshortfile)
	defer glog.Flush()

	flagsGlobal := tools.ParseFlagsGlobal()
	log.Println(tools.FmtJSONString(flagsGlobal))

	args := flag.Args()
	if len(args) == 0 {
		log.Fatal("Please specify a subcommand [index|verify].")
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case tools.CommandIndex:
		mainCommandIndex(args)
	case tools.CommandVerify:
		mainCommandVerify(args)
	default:
		log.Fatalf("Unrecognized command [%q]. Command must be one of [index|verify]", cmd)
	}
}

func mainCommandIndex(args []string) {
	// Retrieve command line args
	flags := tools.ParseFlagsForCommandIndex(args)

	// Prints the command line flag description
	if *flags.Help {
		showHelp()
		return
	}

	if *flags.Version {
		printVersion()
		return
	}

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	} else {
		printLogo()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	tilerFlags := flags.TilerFlags

	// Put args inside a TilerOptions struct
	opts := tiler.TilerOptions{
		Input:            tools.ResolvePath(*tilerFlags.Input),
		ZOffset:          *tilerFlags.ZOffset,
		FolderProcessing: *tilerFlags.FolderProcessing,
		Recursive:        *tilerFlags.RecursiveFolderProcessing,
		Silent:           *tilerFlags.Silent,
		Command:          tools.CommandIndex,
		TilerIndexOptions: &tiler.TilerIndexOptions{
			Output:           tools.ResolvePath(*flags.Output),
			DensityLimit:     int32(*flags.DensityLimit),
			MaxLevel:         int32(*flags.MaxLevel),
			ApplyGlobalShift: *flags.GlobalShift || *flags.ShiftReference != "",
			ShiftReference:   *flags.ShiftReference,
			Sampling:         tiler.ParseSamplingStrategy(*flags.Sampling),
			Precision:        tiler.ParsePrecisionMode(*flags.Precision),
			ConverterPath:    *flags.ConverterPath,
			NumWorkers:       *flags.NumWorkers,
		},
	}

	// Validate TilerOptions
	if msg, res := validateOptionsForCommandIndex(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	// Starts the tiler
	defer timeTrack(time.Now(), "index")
	err := pkg.NewTilerIndex(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(&opts)).RunTiler(&opts)

	if err != nil {
		glog.Flush()
		log.Fatal("Error while indexing: ", err)
	} else {
		tools.LogOutput("Indexing Completed")
	}
}

// Validates the input options provided to the command line tool checking
// that the input exists and that the tree and raster parameters make sense
func validateOptionsForCommandIndex(opts *tiler.TilerOptions) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input file/folder not found", false
	}

	indexOptions := opts.TilerIndexOptions
	if indexOptions.Output == "" {
		return "Output folder not specified", false
	}
	if indexOptions.DensityLimit <= 0 {
		return "density must be a positive number of points", false
	}
	if indexOptions.MaxLevel < 0 {
		return "maxlevel cannot be negative", false
	}
	if indexOptions.NumWorkers < 0 {
		return "workers cannot be negative", false
	}
	if indexOptions.Sampling == "" {
		return "sampling should be either UNIFORM or POISSON", false
	}
	if indexOptions.Precision == "" {
		return "precision should be either STD or QUAD", false
	}

	return "", true
}

func mainCommandVerify(args []string) {
	flags := tools.ParseFlagsForCommandVerify(args)

	log.Println("flags", tools.FmtJSONString(flags))

	// set logging and timestamp logging
	if *flags.Silent {
		tools.DisableLogger()
	}
	if !*flags.LogTimestamp {
		tools.DisableLoggerTimestamp()
	}

	// Put args inside a TilerOptions struct
	opts := tiler.TilerOptions{
		Input:   tools.ResolvePath(*flags.Input),
		Silent:  *flags.Silent,
		Command: tools.CommandVerify,
		TilerVerifyOptions: &tiler.TilerVerifyOptions{
			PrintDigests: *flags.Digests,
		},
	}

	// Validate TilerOptions
	if msg, res := validateOptionsForCommandVerify(&opts); !res {
		log.Fatal("Error parsing input parameters: " + msg)
	}

	// Starts the verification
	defer timeTrack(time.Now(), "verify")
	err := pkg.NewTilerVerify().RunTiler(&opts)

	if err != nil {
		glog.Flush()
		log.Fatal("Verification failed: ", err)
	} else {
		tools.LogOutput("Verification Completed")
	}
}

func validateOptionsForCommandVerify(opts *tiler.TilerOptions) (string, bool) {
	if _, err := os.Stat(opts.Input); os.IsNotExist(err) {
		return "Input folder not found", false
	}

	return "", true
}

func timeTrack(start time.Time, name string) {
	elapsed := time.Since(start)
	tools.LogOutput(fmt.Sprintf("%s took %s", name, elapsed))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}

func showHelp() {
	printLogo()
	fmt.Println("***")
	fmt.Println("PcdLodTiler is a tool that processes point cloud files and transforms them in a multi resolution pyramid of LOD rasters")
	printVersion()
	fmt.Println("***")
	fmt.Println("")
	fmt.Println("Command line flags: ")
	flag.CommandLine.SetOutput(os.Stdout)
	flag.PrintDefaults()
}

func printVersion() {
	fmt.Println("v." + VERSION)
}
