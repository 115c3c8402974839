package nakama

const (
	// RpcCreateRoom reserves a room code and creates the match hosting it.
	RpcCreateRoom = "create_room"
	// RpcJoinRoom resolves a room code to its match id.
	RpcJoinRoom = "join_room"
	// RpcVoiceToken signs a voice chat token for a seated player.
	RpcVoiceToken = "voice_token"

	// MatchNameMarrakech is the authoritative match handler name registered with Nakama.
	MatchNameMarrakech = "marrakech_room"
)

// Match params and join metadata keys.
const (
	ParamCode     = "code"
	ParamCapacity = "capacity"
	MetadataName  = "name"
)

const (
	MatchLabelKey_Code      = "code"
	MatchLabelKey_OpenSeats = "open"
)
