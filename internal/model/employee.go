// Package model はドメインモデルを定義する。
package model

import "time"

// Employee はタイムカードを打刻する従業員を表す。
// UIDはRFIDカードの外部IDで、単体では一意にならずNameとの組で一意になる。
type Employee struct {
	ID        string
	UID       string
	Name      string
	Active    bool
	CheckedIn bool // Clock Controllerのみが更新する
	CreatedAt time.Time
}
