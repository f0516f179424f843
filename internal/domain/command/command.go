package command

import (
	"fmt"
	"regexp"
	"strings"
)

// Type is the kind of application command.
type Type int

// ChatInput is a slash command.
const ChatInput Type = 1

// OptionType is the value type of a command option.
type OptionType int

// Option type constants.
const (
	OptionSubCommand OptionType = 1
	OptionString     OptionType = 3
	OptionInteger    OptionType = 4
	OptionBoolean    OptionType = 5
)

// Installation contexts and interaction contexts accepted by the platform.
const (
	IntegrationGuildInstall = 0
	IntegrationUserInstall  = 1

	ContextGuild          = 0
	ContextBotDM          = 1
	ContextPrivateChannel = 2
)

// Name of the pattern lookup command and its query option.
const (
	PatternName      = "pattern"
	PatternOptionKey = "key"
)

// Limits enforced by the platform on command schemas.
const (
	MaxDescriptionLength = 100
	MaxOptions           = 25
)

var namePattern = regexp.MustCompile(`^[-_\p{L}\p{N}]{1,32}$`)

// Command is the declarative schema of an application command.
type Command struct {
	ID               string   `json:"id,omitempty"`
	Name             string   `json:"name"`
	Type             Type     `json:"type,omitempty"`
	Description      string   `json:"description"`
	Options          []Option `json:"options,omitempty"`
	IntegrationTypes []int    `json:"integration_types,omitempty"`
	Contexts         []int    `json:"contexts,omitempty"`
}

// Option is a typed command parameter.
type Option struct {
	Type        OptionType `json:"type"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Required    bool       `json:"required,omitempty"`
}

// Validate checks the schema against platform limits.
func (c Command) Validate() error {
	if !namePattern.MatchString(c.Name) {
		return fmt.Errorf("command name %q is invalid", c.Name)
	}
	if c.Type == ChatInput && strings.ToLower(c.Name) != c.Name {
		return fmt.Errorf("command name %q must be lowercase", c.Name)
	}
	if c.Type == ChatInput && (c.Description == "" || len(c.Description) > MaxDescriptionLength) {
		return fmt.Errorf("command %q: description must be 1-%d characters", c.Name, MaxDescriptionLength)
	}
	if len(c.Options) > MaxOptions {
		return fmt.Errorf("command %q: too many options (max %d)", c.Name, MaxOptions)
	}

	seen := make(map[string]struct{}, len(c.Options))
	optionalSeen := false
	for _, o := range c.Options {
		if !namePattern.MatchString(o.Name) {
			return fmt.Errorf("command %q: option name %q is invalid", c.Name, o.Name)
		}
		if _, dup := seen[o.Name]; dup {
			return fmt.Errorf("command %q: duplicate option %q", c.Name, o.Name)
		}
		seen[o.Name] = struct{}{}
		if o.Description == "" || len(o.Description) > MaxDescriptionLength {
			return fmt.Errorf("command %q: option %q description must be 1-%d characters",
				c.Name, o.Name, MaxDescriptionLength)
		}
		// Required options must precede optional ones.
		if o.Required && optionalSeen {
			return fmt.Errorf("command %q: required option %q after optional option", c.Name, o.Name)
		}
		if !o.Required {
			optionalSeen = true
		}
	}
	return nil
}

// Pattern returns the schema of the pattern lookup command.
func Pattern() Command {
	return Command{
		Name:        PatternName,
		Type:        ChatInput,
		Description: "Get SkyHanni patterns",
		Options: []Option{
			{
				Type:        OptionString,
				Name:        PatternOptionKey,
				Description: "The key of the pattern to get",
				Required:    true,
			},
		},
		IntegrationTypes: []int{IntegrationGuildInstall, IntegrationUserInstall},
		Contexts:         []int{ContextGuild, ContextBotDM, ContextPrivateChannel},
	}
}

// Catalog returns every command the bot registers.
func Catalog() []Command {
	return []Command{Pattern()}
}
