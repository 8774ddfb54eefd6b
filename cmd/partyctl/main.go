package main

import (
	"os"

	"partyrooms/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	logger.SetupWriter(os.Stderr, "info", true)
	cobra.CheckErr(newRootCmd(openDatabase).Execute())
}
