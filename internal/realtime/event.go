package realtime

import (
	"encoding/json"
	"fmt"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
)

// 表名常量，发布方和订阅方共用
const (
	TableGroupMembers  = "group_members"
	TableGroupRequests = "group_requests"
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableStudyGroups   = "study_groups"
)

// 一条行级变更事件
type Event struct {
	Table string          `json:"table"`
	Op    Op              `json:"op"`
	Row   json.RawMessage `json:"row"`
}

// 解码事件负载到具体的行类型
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Row, v)
}

// 按列值相等过滤的订阅条件，Column为空表示匹配整张表
type Filter struct {
	Column string
	Value  string
}

// 判断行是否命中过滤条件
func (f Filter) Matches(row json.RawMessage) bool {
	if f.Column == "" {
		return true
	}
	var fields map[string]any
	if err := json.Unmarshal(row, &fields); err != nil {
		return false
	}
	value, ok := fields[f.Column]
	if !ok {
		return false
	}
	// 数值在JSON里解码为float64，统一转成字符串比较
	return fmt.Sprint(value) == f.Value
}

// 构造行事件，失败时返回错误由调用方记录
func NewEvent(table string, op Op, row any) (Event, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event row: %w", err)
	}
	return Event{Table: table, Op: op, Row: data}, nil
}
