// Package flags holds the command line helpers shared by the deployer tools.
package flags

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

const (
	DeployCategory  = "DEPLOYMENT"
	NetworkCategory = "NETWORK"
	LoggingCategory = "LOGGING"
	MiscCategory    = "MISC"
)

const (
	VersionMajor = 0
	VersionMinor = 2
	VersionPatch = 0
	VersionMeta  = "stable"
)

// Version holds the textual version string.
var Version = fmt.Sprintf("%d.%d.%d-%s", VersionMajor, VersionMinor, VersionPatch, VersionMeta)

// VersionWithCommit appends the short commit hash and date when known.
func VersionWithCommit(gitCommit, gitDate string) string {
	vsn := Version
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	if gitDate != "" {
		vsn += "-" + gitDate
	}
	return vsn
}

// NewApp creates an app with sane defaults.
func NewApp(gitCommit, gitDate, usage string) *cli.App {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	return app
}

// Merge concatenates flag groups.
func Merge(groups ...[]cli.Flag) []cli.Flag {
	var ret []cli.Flag
	for _, group := range groups {
		ret = append(ret, group...)
	}
	return ret
}
