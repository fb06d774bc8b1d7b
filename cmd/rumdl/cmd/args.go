package cmd

import "os"

func programArgs() []string {
	return os.Args
}
