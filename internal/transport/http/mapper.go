package http

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vovakirdan/huddle-server/internal/auth"
	"github.com/vovakirdan/huddle-server/internal/core"
	"github.com/vovakirdan/huddle-server/internal/proto"
)

const (
	errCodeUnsupportedVersion = "unsupported_version"
	errCodeUnauthorized       = "unauthorized"
	errCodeRateLimited        = "rate_limited"
)

func protoError(code, msg string) *proto.Error {
	return &proto.Error{Code: code, Msg: msg}
}

func missing(field string) *proto.Error {
	return protoError(core.ErrCodeServerError, field+" is required")
}

// decode unmarshals data into v. Malformed payloads are reported to the
// client rather than closing the connection.
func decode(data json.RawMessage, v any) *proto.Error {
	if len(data) == 0 {
		return protoError(core.ErrCodeServerError, "data is required")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return protoError(core.ErrCodeServerError, fmt.Sprintf("invalid data: %v", err))
	}
	return nil
}

// inboundToCommand validates one inbound frame and maps it onto a core command.
func inboundToCommand(inbound proto.Inbound, jwtCfg *auth.JWTConfig) (*core.Command, *proto.Error) {
	cmd, perr := mapInbound(inbound, jwtCfg)
	if cmd != nil {
		cmd.AckID = inbound.Ack
	}
	return cmd, perr
}

func mapInbound(inbound proto.Inbound, jwtCfg *auth.JWTConfig) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeRegisterUser:
		var d proto.RegisterUserData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.UserID == "" {
			return nil, missing("userId")
		}
		if d.Protocol != 0 && d.Protocol != proto.ProtocolVersion {
			return nil, protoError(errCodeUnsupportedVersion, fmt.Sprintf("protocol %d is not supported, use %d", d.Protocol, proto.ProtocolVersion))
		}
		claims, err := auth.Authorize(jwtCfg, d.UserID, d.Token)
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, auth.ErrMissingToken) {
				msg = "token is required"
			}
			return nil, protoError(errCodeUnauthorized, msg)
		}
		username := d.Username
		if username == "" && claims != nil {
			username = claims.Username
		}
		return &core.Command{Kind: core.CommandRegisterUser, UserID: d.UserID, Username: username}, nil

	case proto.InboundTypeCreateRoom:
		var d proto.CreateRoomData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.RoomID == "" {
			return nil, missing("roomId")
		}
		return &core.Command{
			Kind:     core.CommandCreateRoom,
			Room:     d.RoomID,
			RoomName: d.RoomName,
			Username: d.Username,
			Create:   d.IsCreate,
		}, nil

	case proto.InboundTypeJoinRoom, proto.InboundTypeLeaveRoom, proto.InboundTypeTyping,
		proto.InboundTypeStopTyping, proto.InboundTypeRequestRoomUsers:
		var d proto.RoomData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.RoomID == "" {
			return nil, missing("roomId")
		}
		return &core.Command{Kind: roomCommands[inbound.Type], Room: d.RoomID, Username: d.Username}, nil

	case proto.InboundTypeSendMessage:
		var d proto.SendMessageData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.Room == "" {
			return nil, missing("room")
		}
		if d.MessageID == "" {
			return nil, missing("messageId")
		}
		msg := core.Message{
			ID:     d.MessageID,
			Room:   d.Room,
			Text:   d.Message,
			Author: d.Author,
			Time:   d.Time,
		}
		if d.ReplyTo != nil {
			msg.ReplyTo = &core.Reply{
				MessageID: d.ReplyTo.MessageID,
				Text:      d.ReplyTo.Text,
				Author:    d.ReplyTo.Author,
				AuthorID:  d.ReplyTo.AuthorID,
			}
		}
		return &core.Command{Kind: core.CommandSendMessage, Room: d.Room, MessageID: d.MessageID, Message: msg}, nil

	case proto.InboundTypeDeleteMessage, proto.InboundTypeMarkSeen:
		var d proto.MessageRefData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.Room == "" {
			return nil, missing("room")
		}
		if d.MessageID == "" {
			return nil, missing("messageId")
		}
		kind := core.CommandDeleteMessage
		if inbound.Type == proto.InboundTypeMarkSeen {
			kind = core.CommandMarkSeen
		}
		return &core.Command{Kind: kind, Room: d.Room, MessageID: d.MessageID, UserID: d.UserID}, nil

	case proto.InboundTypeTransferAdmin:
		var d proto.TransferAdminData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.RoomID == "" {
			return nil, missing("roomId")
		}
		if d.NewAdminID == "" {
			return nil, missing("newAdminId")
		}
		return &core.Command{Kind: core.CommandTransferAdmin, Room: d.RoomID, UserID: d.NewAdminID}, nil

	case proto.InboundTypeKickUser:
		var d proto.KickUserData
		if perr := decode(inbound.Data, &d); perr != nil {
			return nil, perr
		}
		if d.RoomID == "" {
			return nil, missing("roomId")
		}
		if d.KickedUserID == "" {
			return nil, missing("kickedUserId")
		}
		return &core.Command{Kind: core.CommandKickUser, Room: d.RoomID, UserID: d.KickedUserID}, nil

	default:
		return nil, protoError(core.ErrCodeServerError, "unknown message type")
	}
}

var roomCommands = map[string]core.CommandKind{
	proto.InboundTypeJoinRoom:         core.CommandJoinRoom,
	proto.InboundTypeLeaveRoom:        core.CommandLeaveRoom,
	proto.InboundTypeTyping:           core.CommandTyping,
	proto.InboundTypeStopTyping:       core.CommandStopTyping,
	proto.InboundTypeRequestRoomUsers: core.CommandRequestRoomUsers,
}

// rejectionFor answers a frame that never reached the hub: as an ack when
// the client asked for one, otherwise as a protocol error.
func rejectionFor(inbound proto.Inbound, perr *proto.Error) proto.Outbound {
	if inbound.Ack != "" {
		return proto.Outbound{
			Type: proto.OutboundTypeAck,
			Ack:  inbound.Ack,
			Data: proto.AckData{OK: false, Reason: perr.Msg, ReasonType: perr.Code},
		}
	}
	return proto.Outbound{Type: proto.OutboundTypeError, Error: perr}
}

func usersFrom(snap *core.RoomSnapshot) []proto.User {
	if snap == nil {
		return []proto.User{}
	}
	users := make([]proto.User, 0, len(snap.Users))
	for _, m := range snap.Users {
		users = append(users, proto.User{UserID: m.Identity, Username: m.DisplayName, IsTyping: m.Typing})
	}
	return users
}

func typersFrom(typers []core.Typer) []proto.Typer {
	out := make([]proto.Typer, 0, len(typers))
	for _, t := range typers {
		out = append(out, proto.Typer{UserID: t.UserID, Username: t.Username})
	}
	return out
}

func denied(ev *core.Event) proto.EventDenied {
	d := proto.EventDenied{RoomID: ev.Room, Reason: "Server error.", ReasonType: core.ErrCodeServerError}
	if ev.Error != nil {
		d.Reason = ev.Error.Message
		d.ReasonType = ev.Error.Code
	}
	return d
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	out := proto.Outbound{Type: proto.OutboundTypeEvent, Event: event.Kind.String()}

	switch event.Kind {
	case core.EventAck:
		return ackOutbound(event.Ack)
	case core.EventRoomUsers:
		d := proto.EventRoomUsers{RoomID: event.Room, Users: usersFrom(event.Snapshot)}
		if event.Snapshot != nil {
			d.AdminID = event.Snapshot.AdminID
			d.RoomName = event.Snapshot.RoomName
		}
		out.Data = d
	case core.EventJoinDenied, core.EventCreateRoomFailed:
		out.Data = denied(event)
	case core.EventUserJoined:
		out.Data = proto.EventUserJoined{
			RoomID:    event.Room,
			UserID:    event.User,
			Username:  event.Username,
			Timestamp: event.At.UnixMilli(),
		}
	case core.EventUserLeft:
		out.Data = proto.EventUserLeft{RoomID: event.Room, UserID: event.User, Username: event.Username}
	case core.EventUserTyping, core.EventUserStoppedTyping:
		out.Data = proto.EventTyping{RoomID: event.Room, Typers: typersFrom(event.Typers)}
	case core.EventReceiveMessage:
		msg := event.Message
		d := proto.EventMessage{
			Room:      msg.Room,
			Message:   msg.Text,
			MessageID: msg.ID,
			Author:    msg.Author,
			Time:      msg.Time,
			UserID:    msg.SenderID,
			Username:  msg.SenderName,
			Timestamp: msg.SentAt.UnixMilli(),
		}
		if msg.ReplyTo != nil {
			d.ReplyTo = &proto.Reply{
				MessageID: msg.ReplyTo.MessageID,
				Text:      msg.ReplyTo.Text,
				Author:    msg.ReplyTo.Author,
				AuthorID:  msg.ReplyTo.AuthorID,
			}
		}
		out.Data = d
	case core.EventMessageDeleted:
		out.Data = proto.EventMessageDeleted{Room: event.Room, MessageID: event.MessageID, DeletedBy: event.Actor}
	case core.EventMarkSeen:
		out.Data = proto.EventMarkSeen{
			Room:      event.Room,
			MessageID: event.MessageID,
			UserID:    event.User,
			Username:  event.Username,
		}
	case core.EventAdminTransferred:
		out.Data = proto.EventAdminTransferred{RoomID: event.Room, NewAdminID: event.User}
	case core.EventUserKicked:
		out.Data = proto.EventUserKicked{
			RoomID:       event.Room,
			Username:     event.Username,
			KickedBy:     event.Actor,
			KickedUserID: event.User,
		}
	case core.EventKickedFromRoom:
		out.Data = proto.EventKickedFromRoom{RoomID: event.Room, KickedBy: event.Actor}
	default:
		return proto.Outbound{Type: proto.OutboundTypeError, Error: protoError(core.ErrCodeServerError, "unknown event")}
	}
	return out
}

func ackOutbound(ack *core.Ack) proto.Outbound {
	if ack == nil {
		return proto.Outbound{Type: proto.OutboundTypeError, Error: protoError(core.ErrCodeServerError, "empty ack")}
	}
	d := proto.AckData{OK: ack.OK}
	if ack.Error != nil {
		d.Reason = ack.Error.Message
		d.ReasonType = ack.Error.Code
	}
	if ack.Snapshot != nil {
		d.RoomID = ack.Snapshot.RoomID
		d.Users = usersFrom(ack.Snapshot)
		d.AdminID = ack.Snapshot.AdminID
		d.RoomName = ack.Snapshot.RoomName
	}
	return proto.Outbound{Type: proto.OutboundTypeAck, Ack: ack.ID, Data: d}
}
