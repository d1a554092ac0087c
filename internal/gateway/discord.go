package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const embedColorLive = 0x6441a5

// Discord implements Messenger and GuildManager on a discordgo session.
type Discord struct {
	session *discordgo.Session
}

var (
	_ Messenger    = (*Discord)(nil)
	_ GuildManager = (*Discord)(nil)
)

// NewDiscord wraps an opened session.
func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{session: session}
}

// ignoreNotFound maps Discord "Unknown X" REST errors to nil: the goal state
// (message gone, role absent) already holds.
func ignoreNotFound(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownUser:
			return nil
		}
	}
	return err
}

func buildEmbed(req AnnounceRequest) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: req.Title,
		URL:   req.URL,
		Color: embedColorLive,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    req.AuthorName,
			IconURL: req.AuthorIconURL,
		},
	}
	if req.Game != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Game", Value: req.Game, Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Viewers", Value: fmt.Sprintf("%d", req.ViewerCount), Inline: true,
	})
	if req.ThumbnailURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: req.ThumbnailURL}
	}
	return embed
}

func (d *Discord) SendAnnouncement(ctx context.Context, req AnnounceRequest) (string, error) {
	msg, err := d.session.ChannelMessageSendComplex(req.ChannelID, &discordgo.MessageSend{
		Content: req.Content,
		Embed:   buildEmbed(req),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("send announcement: %w", err)
	}
	return msg.ID, nil
}

func (d *Discord) EditAnnouncement(ctx context.Context, channelID, messageID string, req AnnounceRequest) error {
	_, err := d.session.ChannelMessageEditEmbed(channelID, messageID, buildEmbed(req), discordgo.WithContext(ctx))
	return ignoreNotFound(err)
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	err := d.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
	return ignoreNotFound(err)
}

func (d *Discord) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	err := d.session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
	return ignoreNotFound(err)
}

func (d *Discord) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	err := d.session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
	return ignoreNotFound(err)
}

func (d *Discord) GuildIDs() []string {
	d.session.State.RLock()
	defer d.session.State.RUnlock()

	ids := make([]string, 0, len(d.session.State.Guilds))
	for _, g := range d.session.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

func (d *Discord) GuildMembers(ctx context.Context, guildID string) ([]Member, error) {
	const pageSize = 1000

	members := []Member{}
	after := ""
	for {
		page, err := d.session.GuildMembers(guildID, after, pageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("guild members %s: %w", guildID, err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			members = append(members, Member{
				UserID:      m.User.ID,
				Username:    m.User.Username,
				DisplayName: m.Nick,
			})
			after = m.User.ID
		}
		if len(page) < pageSize {
			return members, nil
		}
	}
}

func (d *Discord) GuildStats() (int, int) {
	d.session.State.RLock()
	defer d.session.State.RUnlock()

	guilds := len(d.session.State.Guilds)
	members := 0
	for _, g := range d.session.State.Guilds {
		members += g.MemberCount
	}
	return guilds, members
}
