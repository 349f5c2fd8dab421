package commands

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oxce5/Discord-bot/automod/discord"
	"github.com/oxce5/Discord-bot/automod/engine"
	"github.com/oxce5/Discord-bot/automod/helpers"

	"github.com/bwmarrin/discordgo"
)

const (
	permsManageRoles = permsEmbed | discordgo.PermissionManageRoles
	permsListRoles   = permsEmbed | discordgo.PermissionReadMessageHistory

	// roles listed per embed
	roleListLimit = 20
)

func RoleCommands() []*Command {
	return []*Command{
		{
			Name:        "assignrole",
			Aliases:     []string{"ar", "giverole"},
			Usage:       "<@member> <role name>",
			Description: "Assign a role to a member",
			Perms:       permsManageRoles,
			GuildOnly:   true,
			Denied:      "assign roles",
			NotFound:    "Member not found",
			Handler:     assignRoleCommand,
		},
		{
			Name:        "removerole",
			Aliases:     []string{"rr", "takerole"},
			Usage:       "<@member> <role name>",
			Description: "Remove a role from a member",
			Perms:       permsManageRoles,
			GuildOnly:   true,
			Denied:      "remove roles",
			NotFound:    "Member not found",
			Handler:     removeRoleCommand,
		},
		{
			Name:        "listroles",
			Aliases:     []string{"lr", "roles"},
			Usage:       "[@member]",
			Description: "List roles for a member or all server roles",
			Perms:       permsListRoles,
			GuildOnly:   true,
			NotFound:    "Member not found",
			Handler:     listRolesCommand,
		},
		{
			Name:        "createrole",
			Aliases:     []string{"cr", "newrole"},
			Usage:       "<role name>",
			Description: "Create a new role",
			Perms:       permsManageRoles,
			GuildOnly:   true,
			Denied:      "create roles",
			Handler:     createRoleCommand,
		},
		{
			Name:        "deleterole",
			Aliases:     []string{"dr"},
			Usage:       "<role name>",
			Description: "Delete a role",
			Perms:       permsManageRoles,
			GuildOnly:   true,
			Denied:      "delete roles",
			Handler:     deleteRoleCommand,
		},
	}
}

func roleMention(id string) string {
	return "<@&" + id + ">"
}

func userMention(id string) string {
	return "<@" + id + ">"
}

// Guild roles ordered highest position first
func (c *Context) guildRoles() ([]*discordgo.Role, error) {
	roles, err := c.API.GuildRoles(c.Event.GuildID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return nil, discord.TranslateError("fetching guild roles", err)
	}
	sort.SliceStable(roles, func(i, j int) bool { return roles[i].Position > roles[j].Position })
	return roles, nil
}

// Matches a role mention by ID, anything else by exact name
func findRoleByName(roles []*discordgo.Role, name string) *discordgo.Role {
	id, isMention := helpers.ParseRoleRef(name)
	for _, r := range roles {
		if (isMention && r.ID == id) || r.Name == name {
			return r
		}
	}
	return nil
}

func displayName(m *discordgo.Member) string {
	switch {
	case m.Nick != "":
		return m.Nick
	case m.User.GlobalName != "":
		return m.User.GlobalName
	}
	return m.User.Username
}

// Position of the bot member's highest role; zero when it only has @everyone
func (c *Context) botTopPosition(roles []*discordgo.Role) (int, error) {
	self := c.Self()
	if self == nil {
		return 0, fmt.Errorf("bot identity not yet known")
	}
	me, err := c.API.GuildMember(c.Event.GuildID, self.ID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return 0, discord.TranslateError("fetching bot member", err)
	}
	return topPosition(roles, me.Roles), nil
}

func topPosition(roles []*discordgo.Role, memberRoleIDs []string) int {
	top := 0
	for _, r := range roles {
		for _, id := range memberRoleIDs {
			if r.ID == id && r.Position > top {
				top = r.Position
			}
		}
	}
	return top
}

// Parses "<member> <role name>" and resolves both
func (c *Context) memberAndRole() (*discordgo.Member, *discordgo.Role, error) {
	ref, roleName := splitFirst(c.Args)
	if ref == "" || roleName == "" {
		return nil, nil, ErrMissingArgument
	}
	userID, ok := helpers.ParseUserRef(ref)
	if !ok {
		return nil, nil, userErrorf("Member '%s' not found.", ref)
	}
	roles, err := c.guildRoles()
	if err != nil {
		return nil, nil, err
	}
	role := findRoleByName(roles, roleName)
	if role == nil {
		return nil, nil, userErrorf("Role '%s' not found.", roleName)
	}
	member, err := c.API.GuildMember(c.Event.GuildID, userID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return nil, nil, discord.TranslateError("fetching member", err)
	}
	top, err := c.botTopPosition(roles)
	if err != nil {
		return nil, nil, err
	}
	if role.Position >= top {
		verb := "assign"
		if c.Command.Name == "removerole" {
			verb = "remove"
		}
		return nil, nil, userErrorf("I don't have permission to %s this role (it's higher than my highest role).", verb)
	}
	return member, role, nil
}

func hasRole(m *discordgo.Member, roleID string) bool {
	for _, id := range m.Roles {
		if id == roleID {
			return true
		}
	}
	return false
}

func assignRoleCommand(c *Context) error {
	member, role, err := c.memberAndRole()
	if err != nil {
		return err
	}
	if hasRole(member, role.ID) {
		return userErrorf("%s already has the role %s.", userMention(member.User.ID), roleMention(role.ID))
	}
	err = c.API.GuildMemberRoleAdd(c.Event.GuildID, member.User.ID, role.ID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("assigning role", err)
	}
	c.Logger.Info("role assigned", "member", member.User.ID, "role", role.ID)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Role Assigned",
		Description: fmt.Sprintf("%s has been assigned the role %s", userMention(member.User.ID), roleMention(role.ID)),
		Color:       engine.ColorGreen,
	})
	return err
}

func removeRoleCommand(c *Context) error {
	member, role, err := c.memberAndRole()
	if err != nil {
		return err
	}
	if !hasRole(member, role.ID) {
		return userErrorf("%s doesn't have the role %s.", userMention(member.User.ID), roleMention(role.ID))
	}
	err = c.API.GuildMemberRoleRemove(c.Event.GuildID, member.User.ID, role.ID, discordgo.WithContext(c.Ctx))
	if err != nil {
		return discord.TranslateError("removing role", err)
	}
	c.Logger.Info("role removed", "member", member.User.ID, "role", role.ID)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Role Removed",
		Description: fmt.Sprintf("%s has been removed from %s", roleMention(role.ID), userMention(member.User.ID)),
		Color:       engine.ColorOrange,
	})
	return err
}

func listRolesCommand(c *Context) error {
	roles, err := c.guildRoles()
	if err != nil {
		return err
	}
	everyone := c.Event.GuildID

	if c.Args != "" {
		ref, _ := splitFirst(c.Args)
		userID, ok := helpers.ParseUserRef(ref)
		if !ok {
			return userErrorf("Member '%s' not found.", ref)
		}
		member, err := c.API.GuildMember(c.Event.GuildID, userID, discordgo.WithContext(c.Ctx))
		if err != nil {
			return discord.TranslateError("fetching member", err)
		}
		var mentions []string
		for _, r := range roles {
			if r.ID != everyone && hasRole(member, r.ID) {
				mentions = append(mentions, roleMention(r.ID))
			}
		}
		if len(mentions) == 0 {
			return c.Reply(fmt.Sprintf("%s has no roles.", userMention(userID)))
		}
		_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
			Title:       "Roles for " + displayName(member),
			Description: strings.Join(mentions, "\n"),
			Color:       engine.ColorBlue,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Total Roles", Value: strconv.Itoa(len(mentions)), Inline: true},
			},
		})
		return err
	}

	var mentions []string
	for _, r := range roles {
		if r.ID != everyone {
			mentions = append(mentions, roleMention(r.ID))
		}
	}
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Server Roles (%d)", len(mentions)),
		Description: "No roles",
		Color:       engine.ColorBlue,
	}
	if len(mentions) > 0 {
		shown := mentions
		if len(shown) > roleListLimit {
			shown = shown[:roleListLimit]
			embed.Footer = &discordgo.MessageEmbedFooter{
				Text: fmt.Sprintf("Showing first %d of %d roles", roleListLimit, len(mentions)),
			}
		}
		embed.Description = strings.Join(shown, "\n")
	}
	_, err = c.ReplyEmbed(embed)
	return err
}

func createRoleCommand(c *Context) error {
	name := c.Args
	if name == "" {
		return ErrMissingArgument
	}
	roles, err := c.guildRoles()
	if err != nil {
		return err
	}
	if findRoleByName(roles, name) != nil {
		return userErrorf("Role '%s' already exists.", name)
	}
	role, err := c.API.GuildRoleCreate(c.Event.GuildID, &discordgo.RoleParams{Name: name},
		discordgo.WithContext(c.Ctx),
		discordgo.WithAuditLogReason("Created by "+c.Event.AuthorName))
	if err != nil {
		return discord.TranslateError("creating role", err)
	}
	c.Logger.Info("role created", "role", role.ID, "name", name)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Role Created",
		Description: fmt.Sprintf("Role %s has been created.", roleMention(role.ID)),
		Color:       engine.ColorGreen,
	})
	return err
}

func deleteRoleCommand(c *Context) error {
	name := c.Args
	if name == "" {
		return ErrMissingArgument
	}
	roles, err := c.guildRoles()
	if err != nil {
		return err
	}
	role := findRoleByName(roles, name)
	if role == nil {
		return userErrorf("Role '%s' not found.", name)
	}
	top, err := c.botTopPosition(roles)
	if err != nil {
		return err
	}
	if role.Position >= top {
		return userErrorf("I don't have permission to delete this role (it's higher than my highest role).")
	}
	err = c.API.GuildRoleDelete(c.Event.GuildID, role.ID,
		discordgo.WithContext(c.Ctx),
		discordgo.WithAuditLogReason("Deleted by "+c.Event.AuthorName))
	if err != nil {
		return discord.TranslateError("deleting role", err)
	}
	c.Logger.Info("role deleted", "role", role.ID, "name", name)
	_, err = c.ReplyEmbed(&discordgo.MessageEmbed{
		Title:       "✅ Role Deleted",
		Description: fmt.Sprintf("Role '%s' has been deleted.", name),
		Color:       engine.ColorRed,
	})
	return err
}
