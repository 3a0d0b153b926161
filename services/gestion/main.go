// Command gestion serves the gestion REST api, either as HTTP server or as
// AWS Lambda function.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/gestion/core/access"
	"github.com/relabs-tech/gestion/core/api"
	"github.com/relabs-tech/gestion/core/archive"
	"github.com/relabs-tech/gestion/core/csql"
	"github.com/relabs-tech/gestion/core/lambda"
	"github.com/relabs-tech/gestion/core/logger"
	"github.com/relabs-tech/gestion/core/metrics"
	"github.com/relabs-tech/gestion/core/notify"
	"github.com/relabs-tech/gestion/core/store"
	"github.com/relabs-tech/gestion/core/store/memory"
	"github.com/relabs-tech/gestion/core/store/postgres"
	"github.com/relabs-tech/gestion/core/store/postgrest"
)

// Service holds the configuration for this service
//
// use STORE_DRIVER=postgres POSTGRES="host=localhost port=5432 user=postgres dbname=postgres sslmode=disable"
type Service struct {
	Port           int           `env:"PORT,default=3000" description:"the port of the HTTP server"`
	LogLevel       string        `env:"LOG_LEVEL,default=info" description:"the log level"`
	JWTSecret      string        `env:"SUPABASE_JWT_SECRET,required" description:"the secret which signs bearer tokens"`
	TokenValidity  time.Duration `env:"TOKEN_VALIDITY,default=1h" description:"the validity of issued tokens"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT,default=30s" description:"the maximum duration of a request"`

	StoreDriver      string `env:"STORE_DRIVER,default=postgrest" description:"postgrest, postgres or memory"`
	SupabaseURL      string `env:"SUPABASE_URL" description:"the project URL for the postgrest driver"`
	SupabaseKey      string `env:"SUPABASE_KEY" description:"the API key for the postgrest driver"`
	Postgres         string `env:"POSTGRES" description:"the connection string for the postgres driver"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" description:"the password of the postgres database"`
	PostgresSchema   string `env:"POSTGRES_SCHEMA,default=public" description:"the schema of the tables"`

	AdminUsername string `env:"ADMIN_USERNAME" description:"an admin account created at startup if missing"`
	AdminPassword string `env:"ADMIN_PASSWORD" description:"the password of the admin account"`

	ArchiveDriver string `env:"ARCHIVE_DRIVER" description:"empty, Local or AWSS3"`
	ArchivePath   string `env:"ARCHIVE_PATH,default=archive" description:"the base path of the Local archive"`
	ArchivePrefix string `env:"ARCHIVE_PREFIX" description:"the key prefix in the AWSS3 archive"`
	AWSRegion     string `env:"AWS_REGION,default=eu-central-1" description:"the AWS region"`
	AWSBucket     string `env:"AWS_BUCKET" description:"the S3 bucket of the archive"`
	AWSAccessID   string `env:"AWS_ACCESS_ID" description:"the AWS access key id"`
	AWSAccessKey  string `env:"AWS_ACCESS_KEY" description:"the AWS secret access key"`

	NotifyDriver string `env:"NOTIFY_DRIVER" description:"empty, kafka or sqs"`
	KafkaBrokers string `env:"KAFKA_BROKERS" description:"comma separated kafka brokers"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=gestion" description:"the kafka topic of change notifications"`
	SQSQueueURL  string `env:"SQS_QUEUE_URL" description:"the queue of change notifications"`
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gestion",
		Short:        "REST api for customers, invoices and appointments",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	cmd.AddCommand(serveCmd(), hashPasswordCmd(), tokenCmd())
	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the api over HTTP, or as lambda function when running in AWS Lambda",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password for the usuarios table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := access.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func tokenCmd() *cobra.Command {
	var rol string
	c := &cobra.Command{
		Use:   "token <username>",
		Short: "Issue a bearer token signed with SUPABASE_JWT_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service := &Service{}
			if err := envdecode.Decode(service); err != nil {
				return err
			}
			issuer, err := access.NewIssuer(service.JWTSecret, service.TokenValidity)
			if err != nil {
				return err
			}
			token, err := issuer.Sign(args[0], rol)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	c.Flags().StringVarP(&rol, "rol", "r", "user", "the role of the token")
	return c
}

func serve(ctx context.Context) error {
	service := &Service{}
	if err := envdecode.Decode(service); err != nil {
		return err
	}
	logger.InitLogger(logger.ParseLevel(service.LogLevel))
	rlog := logger.Default()

	db, closeStore, err := service.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if len(service.AdminUsername) > 0 {
		accounts := &access.Accounts{Store: db}
		err = accounts.EnsureAccounts(ctx, access.Account{
			Username: service.AdminUsername,
			Password: service.AdminPassword,
			Rol:      "admin",
		})
		if err != nil {
			return err
		}
	}

	issuer, err := access.NewIssuer(service.JWTSecret, service.TokenValidity)
	if err != nil {
		return err
	}

	archiveDriver, err := archive.New(ctx, archive.Configuration{
		DriverType:         archive.DriverType(service.ArchiveDriver),
		LocalConfiguration: &archive.LocalConfiguration{BasePath: service.ArchivePath},
		S3Configuration: &archive.S3Configuration{
			AWSRegion:     service.AWSRegion,
			AWSBucketName: service.AWSBucket,
			AccessID:      service.AWSAccessID,
			AccessKey:     service.AWSAccessKey,
			KeyPrefix:     service.ArchivePrefix,
		},
	})
	if err != nil {
		return err
	}

	notifier, err := notify.New(ctx, notify.Configuration{
		DriverType:   notify.DriverType(service.NotifyDriver),
		KafkaBrokers: service.KafkaBrokers,
		KafkaTopic:   service.KafkaTopic,
		SQSQueueURL:  service.SQSQueueURL,
		AWSRegion:    service.AWSRegion,
		AccessID:     service.AWSAccessID,
		AccessKey:    service.AWSAccessKey,
	})
	if err != nil {
		return err
	}
	bb := &api.Builder{
		Store:          db,
		Router:         mux.NewRouter(),
		Issuer:         issuer,
		Archive:        archiveDriver,
		Metrics:        metrics.New("gestion"),
		RequestTimeout: service.RequestTimeout,
	}
	if notifier != nil {
		defer notifier.Close()
		bb.Notifier = notifier
	}
	router := api.New(bb).Router()

	if len(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) > 0 {
		lambda.Start(router)
		return nil
	}

	address := fmt.Sprintf(":%d", service.Port)
	rlog.Infoln("listen on", address)
	return http.ListenAndServe(address, router)
}

// openStore opens the store selected by STORE_DRIVER. The returned function
// releases it.
func (service *Service) openStore(ctx context.Context) (store.Store, func(), error) {
	noop := func() {}
	switch service.StoreDriver {
	case "postgrest":
		client, err := postgrest.New(postgrest.Configuration{
			URL:     service.SupabaseURL,
			Key:     service.SupabaseKey,
			Schema:  service.PostgresSchema,
			Timeout: service.RequestTimeout,
		})
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil
	case "postgres":
		db, err := csql.OpenWithSchema(service.Postgres, service.PostgresPassword, service.PostgresSchema)
		if err != nil {
			return nil, noop, err
		}
		s, err := postgres.New(ctx, db)
		if err != nil {
			db.Close()
			return nil, noop, err
		}
		return s, func() { db.Close() }, nil
	case "memory":
		logger.Default().Warnln("using the in-memory store, data is lost on exit")
		return memory.New(api.Tables, api.ForeignKeys...), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store driver '%s'", service.StoreDriver)
}
