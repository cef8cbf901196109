// seed registers participants and work-item records, and issues transport
// tokens. It is the operator-side companion of relayd and expects exclusive
// access to the stores (run it while the service is down, or point it at a
// fresh directory and swap).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/mama165/sdk-go/logs"

	"floorlink/auth"
	"floorlink/domain"
	"floorlink/store"
)

type Config struct {
	BadgerFilepath string        `envconfig:"BADGER_FILEPATH" required:"true"`
	BlugeFilepath  string        `envconfig:"BLUGE_FILEPATH" required:"true"`
	TokenSecret    string        `envconfig:"TOKEN_SECRET" required:"true"`
	TokenDuration  time.Duration `envconfig:"AUTH_TOKEN_DURATION" default:"720h"`
}

func main() {
	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	mode := flag.String("mode", "", "participant | record | token")
	id := flag.String("id", "", "participant id")
	name := flag.String("name", "", "display name (participant mode)")
	roles := flag.String("roles", "operator", "comma-separated roles (participant mode)")
	pin := flag.String("pin", "", "participant PIN (participant mode)")
	item := flag.String("item", "", "work-item identifier (record mode)")
	owner := flag.String("owner", "", "owning participant id (record mode)")
	problem := flag.String("problem", "", "problem type (record mode)")
	description := flag.String("description", "", "free-form description (record mode)")
	flag.Parse()

	if *mode == "" {
		flag.Usage()
		os.Exit(2)
	}

	switch *mode {
	case "participant":
		seedParticipant(cfg, *id, *name, *roles, *pin)
	case "record":
		seedRecord(cfg, *item, *owner, *problem, *description)
	case "token":
		issueToken(cfg, *id)
	default:
		color.Red.Printf("Unknown mode %q\n", *mode)
		os.Exit(2)
	}
}

func seedParticipant(cfg Config, id, name, roles, pin string) {
	if id == "" || name == "" || pin == "" {
		log.Fatal("participant mode requires -id, -name and -pin")
	}

	db := openBadger(cfg.BadgerFilepath)
	defer db.Close()

	pinHash, err := auth.HashPIN(pin)
	if err != nil {
		log.Fatalf("PIN hashing failed: %v", err)
	}

	directory := store.NewParticipantDirectory(db)
	err = directory.Register(store.Participant{
		ID:          domain.ParticipantID(id),
		DisplayName: name,
		Roles:       strings.Split(roles, ","),
		PINHash:     pinHash,
	})
	if err != nil {
		log.Fatalf("Register failed: %v", err)
	}
	color.Green.Printf("Participant %s (%s) registered with roles [%s]\n", id, name, roles)
}

func seedRecord(cfg Config, item, owner, problem, description string) {
	if item == "" || owner == "" {
		log.Fatal("record mode requires -item and -owner")
	}

	db := openBadger(cfg.BadgerFilepath)
	defer db.Close()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(cfg.BlugeFilepath))
	if err != nil {
		log.Fatalf("Failed to open bluge writer: %v", err)
	}
	defer blugeWriter.Close()

	records := store.NewWorkItemRepository(db, blugeWriter, logs.GetLoggerFromString("WARN"))
	record := domain.WorkItemRecord{
		ID:          uuid.NewString(),
		Identifier:  item,
		Owner:       domain.ParticipantID(owner),
		ProblemType: problem,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := records.Put(record); err != nil {
		log.Fatalf("Record store failed: %v", err)
	}
	color.Green.Printf("Record %s for work item %q stored (owner %s)\n", record.ID, item, owner)
}

func issueToken(cfg Config, id string) {
	if id == "" {
		log.Fatal("token mode requires -id")
	}

	db := openBadger(cfg.BadgerFilepath)
	defer db.Close()

	directory := store.NewParticipantDirectory(db)
	p, err := directory.Get(domain.ParticipantID(id))
	if err != nil {
		log.Fatalf("Unknown participant: %v", err)
	}

	issuer := auth.NewTokenIssuer(cfg.TokenSecret, cfg.TokenDuration)
	token, err := issuer.Generate(p.ID, p.Roles)
	if err != nil {
		log.Fatalf("Token generation failed: %v", err)
	}
	color.Yellow.Printf("Token for %s (expires in %s):\n", id, cfg.TokenDuration)
	fmt.Println(token)
}

func openBadger(path string) *badger.DB {
	db, err := badger.Open(badger.DefaultOptions(path).WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	return db
}
