// This file decodes the fixed-layout "userinfo" string-table entry
// payload into a demo/common.UserInfo record (spec §4.4's special-table
// handling); demo/parser.applyTableSideEffects is the sole caller, kept
// here rather than duplicated there so there is one decoder for the
// layout. "instancebaseline" entries are deliberately not decoded here:
// their payload must be parsed against a class's flattened prop table,
// which this package has no access to, so demo/entity consumes the raw
// Entry.Data for that table directly.

package stringtable

import (
	"encoding/binary"

	"github.com/icza/demorec/demo/common"
)

const (
	userInfoNameSize = 32
	userInfoGUIDSize = 33
	// record layout: version(8) + name(32) + userID(4) + guid(33) +
	// friendID(4) + fake(1) + isHLTV(1)
	userInfoRecordSize = 8 + userInfoNameSize + 4 + userInfoGUIDSize + 4 + 1 + 1
)

// DecodeUserInfo parses the fixed-layout "userinfo" table entry payload.
func DecodeUserInfo(data []byte) (common.UserInfo, error) {
	var info common.UserInfo
	if len(data) < userInfoRecordSize {
		return info, common.NewParseError(common.KindMalformedSubField, "stringtable.userinfo", "short record", nil)
	}

	off := 0
	info.Version = binary.LittleEndian.Uint64(data[off:])
	off += 8

	name, fallback := common.DecodeText(data[off : off+userInfoNameSize])
	info.Name = name
	if fallback {
		info.RawName = append([]byte(nil), data[off:off+userInfoNameSize]...)
	}
	off += userInfoNameSize

	userID := binary.LittleEndian.Uint32(data[off:])
	info.UserID = common.UserID(userID)
	off += 4

	guid, _ := common.DecodeText(data[off : off+userInfoGUIDSize])
	info.GUID = guid
	off += userInfoGUIDSize

	info.FriendID = binary.LittleEndian.Uint32(data[off:])
	off += 4

	info.Fake = data[off] != 0
	off++
	info.IsHLTV = data[off] != 0

	return info, nil
}
