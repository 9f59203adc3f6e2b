// Command seed populates a local store with a sample campus and walks
// through the main flows: profiles, friendships, chats, messages, and
// people search. Handy for demos and for feeding the inspector.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"campus-sync/blob"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/membership"
	"campus-sync/messagelog"
	"campus-sync/moderation"
	"campus-sync/profile"
	"campus-sync/repositories"
	"campus-sync/runtime"
	"campus-sync/search"
	"campus-sync/social"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	_ = godotenv.Load()
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if err := seed(cfg); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
}

func seed(cfg Config) error {
	ctx := context.Background()
	logger := logs.GetLoggerFromString(cfg.LogLevel)

	db, err := badger.Open(badger.DefaultOptions(cfg.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return err
	}
	defer db.Close()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(cfg.BlugeFilepath))
	if err != nil {
		return err
	}
	defer writer.Close()

	store := docstore.New(db, logger)
	defer store.Close()

	users := repositories.NewUserRepository(store, logger)
	chats := repositories.NewChatRepository(store, logger)
	messages := repositories.NewMessageRepository(store, logger)
	directory := search.NewDirectory(writer, logger)
	blobs := blob.NewDiskStore(cfg.BlobRootDir, logger)

	censor, err := moderation.NewCensor([]string{"blockchain"}, '*')
	if err != nil {
		return err
	}

	engine := runtime.NewEngine(
		profile.NewManager(users, blobs, logger),
		social.NewManager(users, directory, logger),
		membership.NewEngine(chats, users, blobs, logger),
		messagelog.NewCoordinator(messages, chats, blobs, censor, logger),
		users, chats,
		runtime.NewCoordinator(store, logger),
		logger,
	)

	header(cfg, "Creating profiles")
	roster := make([]domain.User, 0, 4)
	for _, p := range sampleProfiles() {
		user, err := engine.Profiles.CreateUser(ctx, p.name, p.surname)
		if err != nil {
			return err
		}
		user, err = engine.Profiles.UpdateProfile(ctx, user.ID, profile.Update{
			Course:  &p.course,
			College: &p.college,
			Job:     &p.job,
		})
		if err != nil {
			return err
		}
		// The indexer worker keeps the directory fresh in the long-running
		// process; the seed indexes synchronously so search works right away.
		if err := directory.Index(user); err != nil {
			return err
		}
		roster = append(roster, user)
	}
	printUsers(roster)

	anna, boris, clara, dmitri := roster[0], roster[1], roster[2], roster[3]

	header(cfg, "Building the friend graph")
	if err := engine.Social.SendFriendRequest(ctx, anna.ID, boris.ID); err != nil {
		return err
	}
	if err := engine.Social.AcceptFriendRequest(ctx, boris.ID, anna.ID); err != nil {
		return err
	}
	if err := engine.Social.SendFriendRequest(ctx, dmitri.ID, anna.ID); err != nil {
		return err
	}
	if err := engine.Social.RejectFriendRequest(ctx, anna.ID, dmitri.ID); err != nil {
		return err
	}

	header(cfg, "Creating chats")
	study, err := engine.Chats.CreateChat(ctx, anna.ID, "Algebra study group", []string{boris.ID}, nil)
	if err != nil {
		return err
	}
	if err := engine.Chats.AddMember(ctx, anna.ID, study.ID, clara.ID); err != nil {
		return err
	}
	if err := engine.Chats.PromoteAdmin(ctx, anna.ID, study.ID, boris.ID); err != nil {
		return err
	}
	direct, err := engine.Chats.FindOrCreateDirectChat(ctx, anna.ID, boris.ID)
	if err != nil {
		return err
	}

	header(cfg, "Sending messages")
	lines := []struct{ sender, text string }{
		{anna.ID, "Anyone free to review the homework before Friday?"},
		{boris.ID, "I am, after 16:00."},
		{clara.ID, "Stop pitching your blockchain startup here please"},
	}
	for _, l := range lines {
		if _, err := engine.Messages.Send(ctx, study.ID, l.sender, l.text, nil, ""); err != nil {
			return err
		}
	}
	if _, err := engine.Messages.Send(ctx, direct.ID, anna.ID, "See you at the library", nil, ""); err != nil {
		return err
	}
	chatLog, err := engine.Messages.Messages(ctx, study.ID)
	if err != nil {
		return err
	}
	printMessages(chatLog, roster)

	header(cfg, "Searching people")
	found, err := engine.Social.Search(ctx, anna.ID, []string{"ov"}, search.Filters{Course: "3"})
	if err != nil {
		return err
	}
	printUsers(found)

	header(cfg, "Done")
	fmt.Printf("Seeded %d users, 2 chats, %d messages\n", len(roster), len(chatLog)+1)
	return nil
}

type sampleProfile struct {
	name, surname, course, college, job string
}

func sampleProfiles() []sampleProfile {
	return []sampleProfile{
		{"Anna", "Petrova", "3", "Mathematics", "Teaching assistant"},
		{"Boris", "Ivanov", "3", "Mathematics", "Lab technician"},
		{"Clara", "Schmidt", "2", "Physics", ""},
		{"Dmitri", "Volkov", "4", "Economics", "Analyst"},
	}
}

func header(cfg Config, title string) {
	line := fmt.Sprintf("  ====== %s ======", title)
	if cfg.Colours {
		line = color.New(color.BgBlack, color.FgGreen).Render(line)
	}
	fmt.Println(line)
}

func printUsers(list []domain.User) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Name", "Course", "College", "Job", "Friends"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, u := range list {
		id := u.ID
		if len(id) > 8 {
			id = id[:8]
		}
		table.Append([]string{id, u.DisplayName(), u.Course, u.College, u.Job,
			fmt.Sprintf("%d", len(u.Friends))})
	}
	table.Render()
}

func printMessages(msgs []domain.Message, roster []domain.User) {
	names := lo.SliceToMap(roster, func(u domain.User) (string, string) {
		return u.ID, u.DisplayName()
	})
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"At", "From", "Text", "Lang"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	for _, m := range msgs {
		table.Append([]string{m.Timestamp.Format("15:04:05"), names[m.SenderID], m.Text, m.Lang})
	}
	table.Render()
}
