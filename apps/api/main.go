package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/smartflows/shule/apps/api/echo"
	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/admission"
	"github.com/smartflows/shule/core/auth"
	emailsvc "github.com/smartflows/shule/services/email"
	identitysvc "github.com/smartflows/shule/services/identity"
	logsvc "github.com/smartflows/shule/services/logger"
	ocrsvc "github.com/smartflows/shule/services/ocr"
	sheetsvc "github.com/smartflows/shule/services/sheets"
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

	// set up identity provider
	verifier, directory := setUpIdentity(conf, logger)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	extractor := ocrsvc.NewClient(conf, logger)
	sheets := sheetsvc.NewClient(conf, logger)
	admissionSvc := admission.NewService(extractor, sheets, mailSvc, logger, conf)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	auth.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:         conf,
			Logger:       logger,
			Verifier:     verifier,
			Directory:    directory,
			Extractor:    extractor,
			AdmissionSvc: admissionSvc,
			Validate:     validate,
			Translator:   translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpIdentity(conf *core.Config, logger core.Logger) (auth.Verifier, auth.Directory) {
	if conf.Firebase.ProjectID != "" || conf.Firebase.CredentialsFile != "" {
		client, err := identitysvc.NewFirebaseClient(context.Background(), conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up firebase: %v", err), err)
		}
		return client, client
	}
	if !conf.Debug {
		logger.Fatal("firebase project or credentials file required outside debug mode")
	}
	logger.Warn("no firebase project configured, using in-memory dev identity provider")
	dev := identitysvc.NewDevClient(conf)
	return dev, dev
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
