package entity

// Re-export common types from the common package.

import (
	"dockpanel/internal/entity/common"
)

type StringArray = common.StringArray
type Meta = common.Meta
type BaseParams = common.BaseParams
