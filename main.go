package main

import (
	"flag"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"

	"inkwell/crud"
	"inkwell/http"
)

// main is the app's entry point.
func main() {
	// The "-prod" flag means we're running in production. In that case a
	// .config.json file is required and the app panics if none is found.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	config := LoadConfig(*productionBool)

	// Open a database connection and execute migrations.
	dbConfig := config.Database
	db := NewDB(dbConfig.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.HMACKey, config.Pepper),
		crud.WithOAuth(),
		crud.WithGroup(),
		crud.WithPost(),
		crud.WithComment(),
		crud.WithFollow(),
		crud.WithImage(),
	)
	must(err)

	// Create an oauth config object for doing oauth with Github.
	githubOAuth := &oauth2.Config{
		ClientID:     config.Github.ID,
		ClientSecret: config.Github.Secret,
		RedirectURL:  config.Github.RedirectURL,
		Endpoint:     github.Endpoint,
	}

	// Set up a webserver.
	server := http.NewServer(config.IsProd(), config.CSRFKey, config.SessionKey, githubOAuth, services)

	// Serve the app.
	server.Run(config.Port)
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
