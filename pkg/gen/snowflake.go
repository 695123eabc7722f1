package gen

import (
	"github.com/gtn1024/puratodo-sub001/pkg/config"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("snowflake", fx.Provide(NewNode))

// NewNode builds the id generator for SNOWFLAKE.NODE_ID. Every replica needs
// its own node id.
func NewNode(cfg *config.Config) (*snowflake.Node, error) {
	node, err := snowflake.NewNode(cfg.Snowflake.NodeID)
	if err != nil {
		zap.L().Error("failed to init snowflake node", zap.Int64("node_id", cfg.Snowflake.NodeID), zap.Error(err))
		return nil, err
	}
	return node, nil
}
