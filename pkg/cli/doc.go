/*
Package cli provides command-line interface utilities shared by the eunomia
subcommands: output formatters (text/JSON), progress reporting for long
pushes and builds, signal handling for graceful deployment cancellation, and
the exit-code mapping from the error taxonomy.

Output Formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stdout)
	progress.Start(int64(len(instances)))
	for i := range instances {
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx := cli.SetupSignalHandler()
	// ctx is cancelled on SIGINT/SIGTERM, propagating to in-flight pushes
*/
package cli
