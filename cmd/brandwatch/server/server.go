package server

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"brandwatch/api/routes"
	"brandwatch/internal/app"
	"brandwatch/internal/config"
	"brandwatch/internal/dao"
	"brandwatch/internal/database"
	"brandwatch/internal/services"
	"brandwatch/internal/utils"
	"brandwatch/internal/watch"
)

type ServerOpts struct {
	Port int
	Ip   string
}

func NewServerCommand() *cobra.Command {
	serverConfig := &ServerOpts{}

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the Brandwatch server",
		Long:  `Start the Brandwatch server to submit page evaluations and browse the brand reference store via a JSON API`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			v, err := utils.NewViperConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			instance, err := app.New(v)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			defer func() {
				if closeErr := instance.Close(); closeErr != nil {
					log.Errorf("Error closing application: %v", closeErr)
				}
			}()

			cfg := config.LoadConfig()
			database.InitDB(cfg)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			// Pick up admissions written by concurrently running batch jobs.
			go watch.WatchStore(ctx, v.GetString("store.dir"), func() {
				if err := instance.Store.Reload(); err != nil {
					log.Errorf("Reference store reload failed: %v", err)
				}
			})

			evalDao := dao.NewEvaluationDAO(database.DB)
			evalService := services.NewEvaluationService(evalDao, instance.Orchestrator, instance.Capture, instance.Notifier)
			storeService := services.NewStoreService(instance.Store)

			router := routes.InitRouter(evalService, storeService)
			return router.Run(fmt.Sprintf("%s:%d", serverConfig.Ip, serverConfig.Port))
		},
	}

	serverCmd.Flags().IntVarP(&serverConfig.Port, "port", "p", 8080, "Port to run the server on")
	serverCmd.Flags().StringVarP(&serverConfig.Ip, "ip", "i", "localhost", "IP address to bind the server to")

	return serverCmd
}
