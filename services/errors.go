package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ошибки валидации и бизнес-правил
	ErrPlayerRequired       = errors.New("both teams must have at least one player")
	ErrQueuePlayerRequired  = errors.New("at least one player is required")
	ErrDuplicateTeamPlayer  = errors.New("a player cannot be selected twice in the same team")
	ErrDuplicatePlayers     = errors.New("players cannot play against themselves")
	ErrTeamSizeMismatch     = errors.New("both teams must have the same number of players (1v1 or 2v2 only)")
	ErrQueueNeedsTwoPlayers = errors.New("current match is a team match (2v2), queue entries must also have two players")
	ErrQueueNeedsOnePlayer  = errors.New("current match is singles (1v1), queue entries must be single players")
	ErrInvalidWinnerTeam    = errors.New("winner team must be 1 or 2")
	ErrInvalidForfeitTeam   = errors.New("forfeiting team must be 1 or 2")
	ErrWinnerTeamMissing    = errors.New("cannot determine winner: team does not exist")
	ErrPersonNameRequired   = errors.New("person name is required")
	ErrInvalidFormat        = errors.New("format must be singles, doubles or combined")
	ErrEloFormatRequired    = errors.New("format must be either singles or doubles")
	ErrMatchStillActive     = errors.New("cannot delete an active match")
	ErrAvatarsNotConfigured = errors.New("avatar storage is not configured")
	ErrAvatarInvalidType    = errors.New("unsupported avatar content type")

	// Ошибки конфликтов: стол один, игрок не может находиться в двух местах
	ErrPlayerAlreadyPlaying = errors.New("one or more players are already playing in an active match")
	ErrPlayerAlreadyQueued  = errors.New("one or more players are already in the queue")
	ErrTableOccupied        = errors.New("the table is already occupied by an active match")

	// Ошибки "не найдено"
	ErrActiveMatchNotFound = errors.New("active match not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrNoSeekingOpponent   = errors.New("no match waiting for opponent found")
	ErrQueueEntryNotFound  = errors.New("queue entry not found")
	ErrPersonNotFound      = errors.New("person not found")

	// Ошибки аутентификации администратора
	ErrAdminInvalidPassword = errors.New("invalid admin password")
)
