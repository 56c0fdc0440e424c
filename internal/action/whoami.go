package action

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"sort"
	"strings"
	"sync"

	"hostrelay/internal/transport"
	"hostrelay/pkg/logging"
)

// For mocking in tests
var (
	currentUser   = user.Current
	lookupGroupID = user.LookupGroupId
)

// WhoamiHandler reports the account the relay runs as. The identity is
// resolved once, so every call returns the same text.
type WhoamiHandler struct {
	Host *Host

	once sync.Once
	text string
}

func (w *WhoamiHandler) Handle(ctx context.Context, req Request) transport.Reply {
	w.once.Do(func() {
		w.text = describeIdentity(w.Host.Device)
	})
	return transport.Reply{Text: w.text}
}

func describeIdentity(device string) string {
	u, err := currentUser()
	if err != nil {
		logging.Warn("Action", "could not look up current user: %v", err)
		name := os.Getenv("USER")
		if name == "" {
			name = os.Getenv("USERNAME")
		}
		if name == "" {
			name = notAvailable
		}
		return fmt.Sprintf("👤 Username: %s on %s", name, device)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👤 Username: %s on %s\n", u.Username, device)
	if u.Name != "" && u.Name != u.Username {
		fmt.Fprintf(&b, "📛 Name: %s\n", u.Name)
	}
	fmt.Fprintf(&b, "🆔 UID: %s | GID: %s\n", u.Uid, u.Gid)
	fmt.Fprintf(&b, "👥 Groups: %s", groupNames(u))
	return b.String()
}

func groupNames(u *user.User) string {
	ids, err := u.GroupIds()
	if err != nil || len(ids) == 0 {
		return notAvailable
	}
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if g, err := lookupGroupID(id); err == nil && g.Name != "" {
			names = append(names, g.Name)
		} else {
			names = append(names, id)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
