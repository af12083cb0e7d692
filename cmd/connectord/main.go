package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"biotrack.com.au/biotrack/connector"
	"biotrack.com.au/biotrack/core"
	"biotrack.com.au/biotrack/infrastructure/communication"
	"biotrack.com.au/biotrack/infrastructure/devops"
	"biotrack.com.au/biotrack/infrastructure/filesystem"
	"biotrack.com.au/biotrack/web"
	"biotrack.com.au/biotrack/web/handlers"
	"github.com/rs/zerolog"
)

func main() {
	profilePath := flag.String("profiles", "devices.yaml", "Path to the device profile yaml file")
	apiAddr := flag.String("api", ":8090", "Listen address for the admin API")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	dsn := os.Getenv("DSN")
	if dsn == "" {
		dsn = "root:development@tcp(localhost:3306)/biotrack?parseTime=true"
	}

	secret := os.Getenv("BIOTRACK_JWT_SECRET")
	if secret == "" {
		log.Fatal("BIOTRACK_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var profiles []connector.Profile
	var err error
	if param := os.Getenv("BIOTRACK_SSM_PROFILES"); param != "" {
		profiles, err = devops.LoadRemoteProfiles(ctx, param)
	} else {
		profiles, err = connector.LoadProfiles(*profilePath)
	}
	if err != nil {
		log.Fatalf("failed to load device profiles: %v", err)
	}

	db := core.ConnectDB(dsn)
	if err := db.AutoMigrate(&core.Employee{}, &core.AttendanceRecord{}); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}
	gateway := core.NewGormGateway(db)

	// Merge per-device mappings into the shared identity map; the admin API
	// can upsert more at runtime.
	seed := make(map[int]string)
	for _, p := range profiles {
		for id, code := range p.UserIDMapping {
			seed[id] = code
		}
	}
	identity := connector.NewIdentityMap(seed)
	reconciler := connector.NewReconciler(gateway, logger)
	parser := connector.NewParser(logger)
	slackNotifier := communication.ConnectSlack()

	var sessions []*connector.Session
	for _, p := range profiles {
		deps := connector.SessionDeps{
			Parser:     parser,
			Identity:   identity,
			Reconciler: reconciler,
			Logger:     logger,
			Alerter:    slackNotifier,
		}
		if p.ArchiveBucket != "" {
			deps.Archiver = filesystem.NewPayloadArchive(p.ArchiveBucket)
		}

		s := connector.NewSession(p, deps)
		sessions = append(sessions, s)
		go func(s *connector.Session, name string) {
			if err := s.Run(ctx); err != nil {
				logger.Error().Err(err).Str("device", name).Msg("session terminated")
			}
		}(s, p.Name)
	}

	h := handlers.New(identity, gateway, sessions)
	router := web.NewRouter([]byte(secret), h)
	go func() {
		if err := router.Run(*apiAddr); err != nil {
			log.Fatalf("admin API failed: %v", err)
		}
	}()

	logger.Info().Int("devices", len(sessions)).Str("api", *apiAddr).Msg("connector started")

	<-ctx.Done()
	for _, s := range sessions {
		s.Disconnect()
	}
	logger.Info().Msg("connector stopped")
}
