// Copyright AGNTCY Contributors (https://github.com/agntcy)
// SPDX-License-Identifier: Apache-2.0

package fetch

var opts = &options{}

type options struct {
	Agreement     string
	ForceDownload bool
	NoDownload    bool
	Output        string
}

func init() {
	flags := Command.Flags()
	flags.StringVar(&opts.Agreement, "agreement", "",
		"Remote id of the agreement (transfer contract) to access the data under. "+
			"If empty, all agreements targeting the artifact are tried.")
	flags.BoolVar(&opts.ForceDownload, "force-download", false,
		"Always refetch the data from the provider before serving.")
	flags.BoolVar(&opts.NoDownload, "no-download", false,
		"Never refetch; serve the currently stored payload.")
	flags.StringVar(&opts.Output, "output", "",
		"Write the data to this file instead of standard output.")
}
