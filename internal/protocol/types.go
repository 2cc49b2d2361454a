package protocol

import "errors"

// Family names the kind of payload an envelope carries.
type Family string

const (
	FamilyGameList   Family = "gamelist"
	FamilyBoardList  Family = "boardlist"
	FamilyGameReport Family = "gamereport"
	FamilyProfile    Family = "profile"
	FamilyPlayer     Family = "player"
	FamilyChat       Family = "chat"
)

// Lifecycle commands.
const (
	CommandRegister    = "register"
	CommandUnregister  = "unregister"
	CommandChangeState = "changestate"
)

// Board list commands.
const (
	CommandGetLeaderboard = "getleaderboard"
	CommandGetRatingList  = "getratinglist"
	CommandBoardList      = "boardlist"
	CommandRatingList     = "ratinglist"
)

// UnknownPlayerRating is sent in place of a profile for a player the
// leaderboard has never seen.
const UnknownPlayerRating = "-2"

var (
	ErrUnknownFamily   = errors.New("unknown message family")
	ErrInvalidMessage  = errors.New("invalid message")
	ErrUnsupportedType = errors.New("unsupported stanza type for family")
)

// Message is implemented by every decoded payload.
type Message interface {
	Family() Family
}

// GameSnapshot is what a host reports about its game. Players and NumPlayers
// are required; everything else is descriptive and passed through.
type GameSnapshot struct {
	Players    []string          `json:"players"`
	NumPlayers *int              `json:"nbp"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// GameCommand registers, unregisters or updates the sender's game.
type GameCommand struct {
	Command string        `json:"command"`
	Game    *GameSnapshot `json:"game,omitempty"`
}

// GameListing is one entry of a game list result.
type GameListing struct {
	Host        string            `json:"host"`
	Players     []string          `json:"players"`
	NumPlayers  int               `json:"nbp"`
	PlayersInit []string          `json:"playersInit"`
	NumInit     int               `json:"nbpInit"`
	State       string            `json:"state"`
	StartTime   int64             `json:"startTime,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// GameList is the full list of open games.
type GameList struct {
	Games []GameListing `json:"games"`
}

// BoardRequest asks for the leaderboard or the online rating list.
type BoardRequest struct {
	Command   string `json:"command"`
	Recipient string `json:"recipient,omitempty"`
}

// BoardItem is one row of a board list.
type BoardItem struct {
	Name   string `json:"name"`
	Rating string `json:"rating"`
}

// BoardList answers a BoardRequest.
type BoardList struct {
	Command   string      `json:"command"`
	Recipient string      `json:"recipient,omitempty"`
	Items     []BoardItem `json:"items"`
}

// GameReport carries one participant's view of a finished match. Sender is
// only set when the gateway forwards the report on a client's behalf.
type GameReport struct {
	Sender string            `json:"sender,omitempty"`
	Game   map[string]string `json:"game"`
}

// ProfileRequest asks for the profile of the player named in Command.
type ProfileRequest struct {
	Command   string `json:"command"`
	Recipient string `json:"recipient,omitempty"`
}

// ProfileItem is a player's statistics. For an unknown player only Player
// and Rating (UnknownPlayerRating) are set.
type ProfileItem struct {
	Player           string `json:"player"`
	Rating           string `json:"rating"`
	HighestRating    string `json:"highestRating,omitempty"`
	Rank             string `json:"rank,omitempty"`
	TotalGamesPlayed string `json:"totalGamesPlayed,omitempty"`
	Wins             string `json:"wins,omitempty"`
	Losses           string `json:"losses,omitempty"`
}

// Profile answers a ProfileRequest.
type Profile struct {
	Command   string        `json:"command"`
	Recipient string        `json:"recipient,omitempty"`
	Items     []ProfileItem `json:"items"`
}

// PlayerOnline tells the rating authority that a client connected.
type PlayerOnline struct {
	Online string `json:"online"`
}

// Chat is a room message.
type Chat struct {
	Body string `json:"body"`
}

func (GameCommand) Family() Family    { return FamilyGameList }
func (GameList) Family() Family       { return FamilyGameList }
func (BoardRequest) Family() Family   { return FamilyBoardList }
func (BoardList) Family() Family      { return FamilyBoardList }
func (GameReport) Family() Family     { return FamilyGameReport }
func (ProfileRequest) Family() Family { return FamilyProfile }
func (Profile) Family() Family        { return FamilyProfile }
func (PlayerOnline) Family() Family   { return FamilyPlayer }
func (Chat) Family() Family           { return FamilyChat }
