// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package bot_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/holomush/convex/internal/host"
	ircconn "github.com/holomush/convex/internal/irc"
	"github.com/holomush/convex/internal/roster"
	"github.com/holomush/convex/pkg/errutil"
	"github.com/holomush/convex/pkg/irc"
	"github.com/holomush/convex/plugins/core"
)

var _ = Describe("Bot session", func() {
	var (
		server *ircServer
		h      *host.Host
		done   chan error
		cancel context.CancelFunc
	)

	BeforeEach(func() {
		server = startServer()

		r, err := roster.FromSeed(roster.Seed{
			Channels: []string{"#testgrounds"},
			Users:    []irc.User{{Nickname: "alice", Realname: "alice", Access: 0}},
		})
		Expect(err).NotTo(HaveOccurred())

		var ctx context.Context
		ctx, cancel = context.WithTimeout(context.Background(), 10*time.Second)

		conn, err := ircconn.Dial(ctx, ircconn.Config{
			Addr:     server.Addr(),
			Nickname: "Eve",
			Realname: "Evealyn",
		})
		Expect(err).NotTo(HaveOccurred())

		h, err = host.New(host.Config{Nickname: "Eve", Version: "1.0.0", DrainTimeout: time.Second}, conn, r)
		Expect(err).NotTo(HaveOccurred())
		h.Load(ctx, core.New(nil))

		done = make(chan error, 1)
		go func() { done <- h.Run(ctx) }()
	})

	AfterEach(func() {
		cancel()
		Eventually(done, 5*time.Second).Should(Receive())
		server.Close()
	})

	It("registers, joins after the greeting and answers help", func() {
		Eventually(server.Lines, 2*time.Second).Should(ContainElements(
			"NICK Eve",
			"USER Eve 0 * Evealyn",
		))

		server.Send(":irc.example.net 001 Eve :Welcome")
		server.Send(":irc.example.net 376 Eve :End of /MOTD command.")
		Eventually(server.Lines, 2*time.Second).Should(ContainElements(
			"MODE Eve +B",
			"JOIN #testgrounds",
		))

		server.Send(":Eve!eve@bot.host JOIN #testgrounds")
		server.Send(":alice!alice@example.net PRIVMSG #testgrounds :eve help")
		Eventually(server.Lines, 2*time.Second).Should(ContainElement(
			"PRIVMSG #testgrounds :Active commands: Quit, Eval, Join, Part, Channels, Define, Lookup, Users, Info",
		))

		server.Send(":alice!alice@example.net PRIVMSG #testgrounds :eve eval (1 + 2) * 3")
		Eventually(server.Lines, 2*time.Second).Should(ContainElement("PRIVMSG #testgrounds 9"))
	})

	It("shuts down in order when told to quit", func() {
		server.Send(":alice!alice@example.net PRIVMSG #testgrounds :eve quit")

		var err error
		Eventually(done, 5*time.Second).Should(Receive(&err))
		Expect(err).NotTo(HaveOccurred())
		Expect(h.Executing()).To(BeFalse())

		for _, p := range h.Loaded() {
			Expect(p.Status().String()).To(Equal("stopped"))
		}

		Eventually(server.Lines, 2*time.Second).Should(ContainElement(HavePrefix("QUIT")))
		lines := server.Lines()
		shutdown := indexOf(lines, "PRIVMSG #testgrounds :Shutting down.")
		Expect(shutdown).To(BeNumerically(">=", 0))
		Expect(lines[len(lines)-1]).To(HavePrefix("QUIT"))

		done <- nil // AfterEach waits on done again
	})

	It("ends the run when the server hangs up", func() {
		Eventually(server.Lines, 2*time.Second).ShouldNot(BeEmpty())
		server.Hangup()

		var err error
		Eventually(done, 5*time.Second).Should(Receive(&err))
		Expect(errutil.HasCode(err, host.CodeConnectionLost)).To(BeTrue())

		done <- nil
	})
})

func indexOf(lines []string, want string) int {
	for i, l := range lines {
		if l == want {
			return i
		}
	}
	return -1
}
