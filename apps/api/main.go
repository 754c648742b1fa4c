package main

import (
	"context"
	"database/sql"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"

	echoapi "github.com/darasahq/darasa/apps/api/echo"
	"github.com/darasahq/darasa/core"
	"github.com/darasahq/darasa/core/courseware"
	"github.com/darasahq/darasa/core/eval"
	"github.com/darasahq/darasa/core/scope"
	emailsvc "github.com/darasahq/darasa/services/email"
	gradesvc "github.com/darasahq/darasa/services/grades"
	logsvc "github.com/darasahq/darasa/services/logger"
	realtimesvc "github.com/darasahq/darasa/services/realtime"
	"github.com/darasahq/darasa/storage/database"
	sqlxrepos "github.com/darasahq/darasa/storage/database/sqlx"
	redisdb "github.com/darasahq/darasa/storage/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("failed to close DB", err)
		}
	}()

	// set up repositories; scope entries live in Redis when configured
	coursewareRepo := sqlxrepos.NewCoursewareRepository(db)
	progressRepo := sqlxrepos.NewProgressRepository(db)
	scoreRepo := sqlxrepos.NewScoreRepository(db)
	competencyRepo := sqlxrepos.NewCompetencyRepository(db)

	var scopeRepo scope.Repository = sqlxrepos.NewScopeRepository(db)
	if conf.Redis.Address != "" {
		client, err := redisdb.Open(context.Background(), conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up redis: %v", err), err)
		}
		defer func() { _ = client.Close() }()
		scopeRepo = redisdb.NewScopeRepository(client)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	hub := realtimesvc.NewHub(logger)
	feedback := emailsvc.NewFeedbackEmitter(hub, mailSvc, conf)

	var passback eval.GradePassback
	if conf.LTIOutcomesURL != "" {
		passback = gradesvc.NewLTIService(conf, logger)
	} else {
		passback = gradesvc.NewConsoleService(logger)
	}
	passback = gradesvc.NewNotifyingPassback(passback, mailSvc, conf)

	coursewareSvc := courseware.NewService(coursewareRepo)
	scopeSvc := scope.NewService(scopeRepo)
	dispatcher := eval.NewDispatcher(
		progressRepo,
		coursewareRepo,
		scopeSvc,
		scoreRepo,
		competencyRepo,
		feedback,
		passback,
		eval.NewPolicyRegistry(conf.Evaluation.DefaultMasteryThreshold, logger),
		logger,
	)
	evalSvc := eval.NewService(coursewareRepo, scopeSvc, dispatcher, logger)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	courseware.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		EvalSvc:       evalSvc,
		CoursewareSvc: coursewareSvc,
		ProgressRepo:  progressRepo,
		Hub:           hub,
		Validate:      validate,
		Translator:    translator,
	})
	server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db, conf); err != nil {
		return nil, err
	}
	return db, nil
}
