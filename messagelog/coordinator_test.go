package messagelog

import (
	"context"
	stderrors "errors"
	"log/slog"
	"testing"

	"campus-sync/blob"
	"campus-sync/contract"
	"campus-sync/docstore"
	"campus-sync/domain"
	"campus-sync/errors"
	"campus-sync/mocks"
	"campus-sync/moderation"
	"campus-sync/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type fixture struct {
	coordinator *Coordinator
	messages    repositories.IMessageRepository
	chats       repositories.IChatRepository
	chatID      string
}

func setup(t *testing.T, censor *moderation.Censor, blobs contract.BlobStore) fixture {
	t.Helper()
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	t.Cleanup(func() { _ = db.Close() })

	store := docstore.New(db, slog.Default())
	t.Cleanup(store.Close)

	chats := repositories.NewChatRepository(store, slog.Default())
	messages := repositories.NewMessageRepository(store, slog.Default())
	if blobs == nil {
		blobs = blob.NewDiskStore(t.TempDir(), slog.Default())
	}

	chatID, err := chats.Create(context.Background(), domain.Chat{
		Name:      "study group",
		CreatedBy: "alice",
		Members:   []string{"alice", "bob"},
		Admins:    []string{"alice"},
	})
	req.NoError(err)

	return fixture{
		coordinator: NewCoordinator(messages, chats, blobs, censor, slog.Default()),
		messages:    messages,
		chats:       chats,
		chatID:      chatID,
	}
}

func Test_Send_Appends_To_Log(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)
	ctx := context.Background()

	sent, err := f.coordinator.Send(ctx, f.chatID, "alice", "hello there", nil, "")
	req.NoError(err)
	req.NotEmpty(sent.ID)
	req.Equal("alice", sent.SenderID)

	fetched, err := f.coordinator.Messages(ctx, f.chatID)
	req.NoError(err)
	req.Len(fetched, 1)
	req.Equal("hello there", fetched[0].Text)
}

func Test_Send_Rejects_NonMember(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)

	_, err := f.coordinator.Send(context.Background(), f.chatID, "mallory", "let me in", nil, "")
	req.ErrorIs(err, errors.ErrForbidden)
}

func Test_Send_Rejects_Empty_Message(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)

	_, err := f.coordinator.Send(context.Background(), f.chatID, "alice", "", nil, "")
	req.ErrorIs(err, errors.ErrEmptyMessage)
}

func Test_Send_Unknown_Chat(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)

	_, err := f.coordinator.Send(context.Background(), "nope", "alice", "hello", nil, "")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Timestamps_Strictly_Increase_Per_Chat(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)
	ctx := context.Background()

	// Sends in a tight loop can land on the same clock reading
	var previous domain.Message
	for i := 0; i < 50; i++ {
		m, err := f.coordinator.Send(ctx, f.chatID, "alice", "tick", nil, "")
		req.NoError(err)
		if i > 0 {
			req.True(m.Timestamp.After(previous.Timestamp))
		}
		previous = m
	}

	fetched, err := f.coordinator.Messages(ctx, f.chatID)
	req.NoError(err)
	req.Len(fetched, 50)
}

func Test_Send_Applies_Moderation(t *testing.T) {
	req := require.New(t)
	censor, err := moderation.NewCensor([]string{"loser"}, '*')
	req.NoError(err)
	f := setup(t, censor, nil)

	sent, err := f.coordinator.Send(context.Background(), f.chatID, "alice", "what a loser", nil, "")
	req.NoError(err)
	req.Equal("what a *****", sent.Text)
}

func Test_Send_Tags_Language(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)

	sent, err := f.coordinator.Send(context.Background(), f.chatID, "alice",
		"this is a reasonably long english sentence for detection", nil, "")
	req.NoError(err)
	req.Equal("eng", sent.Lang)
}

func Test_Send_With_Attachment(t *testing.T) {
	req := require.New(t)
	f := setup(t, nil, nil)
	ctx := context.Background()

	pdf := []byte("%PDF-1.4 report body")
	sent, err := f.coordinator.Send(ctx, f.chatID, "bob", "", pdf, "report.pdf")
	req.NoError(err)
	req.NotNil(sent.Attachment)
	req.Equal(domain.AttachmentDocument, sent.Attachment.Kind)
	req.Equal("report.pdf", sent.Attachment.Name)
	req.NotEmpty(sent.Attachment.URL)
}

func Test_Failed_Upload_Leaves_Log_Untouched(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	blobs := mocks.NewMockBlobStore(ctrl)
	blobs.EXPECT().
		Upload(gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", stderrors.New("bucket unreachable"))

	f := setup(t, nil, blobs)
	ctx := context.Background()

	_, err := f.coordinator.Send(ctx, f.chatID, "alice", "with photo", []byte{0x89, 0x50}, "photo.png")
	req.Error(err)

	fetched, err := f.coordinator.Messages(ctx, f.chatID)
	req.NoError(err)
	req.Empty(fetched)
}
