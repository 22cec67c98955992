package cmd

import (
	"log"
	"os"
	"time"

	"github.com/catalyst-network/catalyst-agent/agent/utils"
	"github.com/catalyst-network/catalyst-agent/cmds/service"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
	"github.com/spf13/cobra"
)

// serviceCmd represents the service command
var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Parent command for running the agent service",
	Long: `
Parent command for running the agent service
	`,
	Run: func(cmd *cobra.Command, args []string) {
		SubCmdNeeded(cmd)
	},
}

var serviceStartEnvs = map[string]string{
	"label":               "LABEL",
	"host-address":        "HOST_ADDRESS",
	"http-listen":         "HTTP_LISTEN",
	"ws-listen":           "WS_LISTEN",
	"webhook-url":         "WEBHOOK_URL",
	"storage-file":        "STORAGE_FILE",
	"storage-backup":      "STORAGE_BACKUP",
	"storage-backup-time": "STORAGE_BACKUP_TIME",
	"router-key":          "ROUTER_KEY",
	"require-invitation":  "REQUIRE_INVITATION",
	"print-invitation":    "PRINT_INVITATION",
	"invitation-file":     "INVITATION_FILE",
	"timeout":             "TIMEOUT",
}

// startServiceCmd represents the service start subcommand
var startServiceCmd = &cobra.Command{
	Use:   "start",
	Short: "Command for starting the agent service",
	Long: `
Start command for the agent service.

Example
	catalyst-agent service start \
		--label my-agent \
		--host-address http://agent.example.com:8080 \
		--http-listen :8080
	`,
	PreRunE: func(cmd *cobra.Command, args []string) (err error) {
		return BindEnvs(serviceStartEnvs, "SERVICE")
	},
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		defer err2.Handle(&err, "service start")

		try.To(sCmd.Validate())
		if !rootFlags.dryRun {
			cmd.SilenceUsage = true
			try.To(sCmd.Exec(os.Stdout))
		}
		return nil
	},
}

var sCmd = service.Cmd{}

func init() {
	defer err2.Catch(func(err error) error {
		log.Println(err)
		return nil
	})

	sCmd.VersionInfo = "catalyst-agent v. " + utils.Version

	flags := startServiceCmd.Flags()
	flags.StringVar(&sCmd.Label, "label", "catalyst-agent", flagInfo("agent label shown to peers", serviceCmd.Name(), serviceStartEnvs["label"]))
	flags.StringVar(&sCmd.HostAddr, "host-address", "http://localhost:8080", flagInfo("endpoint address seen from the internet", serviceCmd.Name(), serviceStartEnvs["host-address"]))
	flags.StringVar(&sCmd.HTTPAddr, "http-listen", ":8080", flagInfo("http transport listen address", serviceCmd.Name(), serviceStartEnvs["http-listen"]))
	flags.StringVar(&sCmd.WSAddr, "ws-listen", "", flagInfo("websocket transport listen address", serviceCmd.Name(), serviceStartEnvs["ws-listen"]))
	flags.StringVar(&sCmd.WebhookURL, "webhook-url", "", flagInfo("URL for state change notifications", serviceCmd.Name(), serviceStartEnvs["webhook-url"]))
	flags.StringVar(&sCmd.StoragePath, "storage-file", "", flagInfo("record storage file, in-memory when empty", serviceCmd.Name(), serviceStartEnvs["storage-file"]))
	flags.StringVar(&sCmd.BackupName, "storage-backup", "", flagInfo("base name for storage backup files", serviceCmd.Name(), serviceStartEnvs["storage-backup"]))
	flags.StringVar(&sCmd.BackupTime, "storage-backup-time", "03:00", flagInfo("time to start storage backup in HH:MM[:SS]", serviceCmd.Name(), serviceStartEnvs["storage-backup-time"]))
	flags.StringVar(&sCmd.RouterVerKey, "router-key", "", flagInfo("verification key of our routing agent connection", serviceCmd.Name(), serviceStartEnvs["router-key"]))
	flags.BoolVar(&sCmd.RequireInvitation, "require-invitation", false, flagInfo("reject connection requests without an invitation", serviceCmd.Name(), serviceStartEnvs["require-invitation"]))
	flags.BoolVar(&sCmd.PrintInvitation, "print-invitation", false, flagInfo("print a fresh invitation after startup", serviceCmd.Name(), serviceStartEnvs["print-invitation"]))
	flags.StringVar(&sCmd.InvitationFile, "invitation-file", "", flagInfo("accept the invitation in the JSON file after startup", serviceCmd.Name(), serviceStartEnvs["invitation-file"]))
	flags.DurationVar(&sCmd.Timeout, "timeout", time.Minute, flagInfo("outbound request timeout", serviceCmd.Name(), serviceStartEnvs["timeout"]))

	rootCmd.AddCommand(serviceCmd)
	serviceCmd.AddCommand(startServiceCmd)
}
