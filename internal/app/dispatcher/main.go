package dispatcher

import (
	"context"
	"strings"
	"time"

	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/config"
	"github.com/airenas/bpoc/internal/pkg/messages"
	"github.com/airenas/bpoc/internal/pkg/mongo"
	"github.com/airenas/bpoc/internal/pkg/planner"
	"github.com/airenas/bpoc/internal/pkg/rabbit"
	"github.com/airenas/bpoc/internal/pkg/recorder"
	"github.com/heptiolabs/healthcheck"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

var appName = "BPOC Dispatcher Service"

var rootCmd = &cobra.Command{
	Use:   "dispatcherService",
	Short: appName,
	Long:  `HTTP server assigning waiting tasks to idle resources for business process simulation runs`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8080)
	cmdapp.Config.SetDefault("planner.strategy", planner.StrategyGreedy)
	cmdapp.Config.SetDefault("planner.windowSize", planner.DefaultWindowSize)
	cmdapp.Config.SetDefault("messageServer.eventQueue", messages.Events)
}

//Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	data, err := newServiceData()
	cmdapp.CheckOrPanic(err, "Can't init service")
	data.Port = cmdapp.Config.GetInt("port")
	data.Defaults = planner.Params{Strategy: cmdapp.Config.GetString("planner.strategy"),
		WindowSize: cmdapp.Config.GetInt("planner.windowSize"),
		Seed:       cmdapp.Config.GetInt64("planner.randomSeed")}
	cmdapp.CheckOrPanic(data.Defaults.Validate(), "Wrong planner config")

	if f := cmdapp.Config.GetString("pool.file"); f != "" {
		data.PoolProvider, err = config.NewPoolProvider(f)
		cmdapp.CheckOrPanic(err, "Can't init pool provider")
	}

	if cmdapp.Config.GetString("mongo.url") != "" {
		mongoSessionProvider, err := mongo.NewSessionProvider()
		cmdapp.CheckOrPanic(err, "Can't init mongo")
		defer mongoSessionProvider.Close()
		data.health.AddLivenessCheck("mongo", healthcheck.Async(mongoSessionProvider.Healthy, 10*time.Second))
		runSaver, err := mongo.NewRunSaver(mongoSessionProvider)
		cmdapp.CheckOrPanic(err, "Can't init run saver")
		data.RunSaver, data.RunProvider = runSaver, runSaver
	}

	if p := cmdapp.Config.GetString("recorder.path"); p != "" {
		rec, err := recorder.New(p)
		cmdapp.CheckOrPanic(err, "Can't init decision recorder")
		defer rec.Close()
		data.Recorder = rec
	}

	if cmdapp.Config.GetString("messageServer.url") != "" {
		msgChannelProvider, err := rabbit.NewChannelProvider()
		cmdapp.CheckOrPanic(err, "Can't init rabbit channel provider")
		defer msgChannelProvider.Close()
		data.health.AddLivenessCheck("rabbit", healthcheck.Async(msgChannelProvider.Healthy, 10*time.Second))

		if q := cmdapp.Config.GetString("messageServer.decisionQueue"); q != "" {
			data.MessageSender = rabbit.NewSender(msgChannelProvider)
			data.DecisionQueue = q
		}
		eventQueue := cmdapp.Config.GetString("messageServer.eventQueue")
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			cmdapp.LogIf(listenEvents(ctx, data, newEventChannelFunc(msgChannelProvider, eventQueue), &expBackOffProvider{}))
		}()
	}

	err = StartWebServer(data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func newEventChannelFunc(prv *rabbit.ChannelProvider, queue string) eventChannelFunc {
	return func() (<-chan amqp.Delivery, error) {
		var res <-chan amqp.Delivery
		err := prv.RunOnChannelWithRetry(func(ch *amqp.Channel) error {
			qName := prv.QueueName(strings.TrimSpace(queue))
			if _, err := rabbit.DeclareQueue(ch, qName); err != nil {
				return err
			}
			if err := ch.Qos(1, 0, false); err != nil {
				return err
			}
			var err error
			res, err = rabbit.NewChannel(ch, qName)
			return err
		})
		return res, err
	}
}
