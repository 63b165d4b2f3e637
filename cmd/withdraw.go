package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kmrl/induction/core/model"
	"github.com/kmrl/induction/infra/logger"
	"github.com/kmrl/induction/infra/mqtt"
)

var (
	withdrawTrain  string
	withdrawRoute  string
	withdrawReason string
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Publish a withdrawal to the broker feed",
	Long: `withdraw reports a service-hour train failure on the MQTT feed the
running planner listens to.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.MQTT.Enabled {
			return fmt.Errorf("mqtt is disabled in the configuration")
		}
		log := logger.New("withdraw")

		client := mqtt.NewClient(mqtt.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID + "-cli",
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
		}, log)
		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()

		payload, err := json.Marshal(model.Withdrawal{
			TrainID:    withdrawTrain,
			Route:      withdrawRoute,
			Reason:     withdrawReason,
			ReportedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		topic := "induction/withdrawal/" + withdrawRoute
		if err := client.Publish(topic, 1, payload); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published withdrawal of %s on %s\n", withdrawTrain, topic)
		return nil
	},
}

func init() {
	withdrawCmd.Flags().StringVar(&withdrawTrain, "train", "", "train ID to withdraw")
	withdrawCmd.Flags().StringVar(&withdrawRoute, "route", "line-1", "route the train was serving")
	withdrawCmd.Flags().StringVar(&withdrawReason, "reason", "", "failure description")
	_ = withdrawCmd.MarkFlagRequired("train")
	_ = withdrawCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(withdrawCmd)
}
