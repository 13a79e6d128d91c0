package server

import (
	"os"

	"github.com/spf13/cobra"

	"webscout/api/routes"
	"webscout/internal/config"
	"webscout/internal/dao"
	"webscout/internal/database"
	"webscout/internal/notification"
	"webscout/internal/services"
	"webscout/pkg/engine"
	"webscout/pkg/probe"

	log "github.com/sirupsen/logrus"
)

type ServerOpts struct {
	Addr          string
	MaxConcurrent int
}

func NewServerCommand() *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the webscout server",
		Long:  `Start the webscout server to launch and track scans over a JSON API`,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.SilenceUsage = true
			cfg := config.LoadConfig()
			database.InitDB(cfg)

			var notifier engine.Notifier
			if os.Getenv("DISCORD_TOKEN") != "" {
				client, err := notification.NewNotificationClient()
				if err != nil {
					log.Warnf("Failed to initialize Discord client: %v", err)
				} else {
					defer client.Close()
					notifier = client
				}
			}

			scanDao := dao.NewScanDAO(database.DB)
			scanService := services.NewScanService(scanDao, cfg.OutputRoot, serverConfig.MaxConcurrent, probe.DefaultSettings(), notifier)

			addr := serverConfig.Addr
			if addr == "" {
				addr = cfg.ListenAddr
			}
			router := routes.InitRouter(scanService)
			router.Run(addr)
		},
	}

	serverCmd.Flags().StringVarP(&serverConfig.Addr, "addr", "a", "", "Address to listen on (default from LISTEN_ADDR)")
	serverCmd.Flags().IntVar(&serverConfig.MaxConcurrent, "max-concurrent", 2, "Maximum scans running at once")

	return serverCmd
}
