package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/qwaszx001001/byzantium/core"
	"github.com/qwaszx001001/byzantium/core/course"
	"github.com/qwaszx001001/byzantium/core/enrollment"
	"github.com/qwaszx001001/byzantium/core/progress"
	"github.com/qwaszx001001/byzantium/core/user"
	emailsvc "github.com/qwaszx001001/byzantium/services/email"
	logsvc "github.com/qwaszx001001/byzantium/services/logger"
	"github.com/qwaszx001001/byzantium/storage/database"
	sqlxrepos "github.com/qwaszx001001/byzantium/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Close()

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	// set up services
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(db))
	progressSvc := progress.NewService(sqlxrepos.NewProgressRepository(db))

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	// start CLI
	cli := commandLine{
		db:       db.DB,
		validate: validate,
		usrSvc:   usrSvc,
		enrollmentSvc: enrollment.NewService(
			conf,
			logger,
			sqlxrepos.NewEnrollmentRepository(db),
			courseSvc,
			usrSvc,
			progressSvc,
			mailSvc,
		),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		logger.Close()
		os.Exit(1)
	}
}
