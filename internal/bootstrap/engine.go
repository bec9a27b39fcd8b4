// Copyright (c) 2025 StudyLoop Inc. All Rights Reserved.
// This is licensed software from StudyLoop Inc, for limitations
// and restrictions contact your company contract manager.

package bootstrap

import (
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/studyloop/churn-risk-engine/pkg/casestudy"
	"github.com/studyloop/churn-risk-engine/pkg/evaluate"
	"github.com/studyloop/churn-risk-engine/pkg/scoring"
	"github.com/studyloop/churn-risk-engine/pkg/service"
	"github.com/studyloop/churn-risk-engine/pkg/update"
	"github.com/studyloop/churn-risk-engine/pkg/weights"
)

// Components are the wired engine parts, built in dependency order:
// stores, weight accessor, scorer, evaluator, then the calibration
// surfaces on top.
type Components struct {
	WeightStore  service.WeightStore
	SessionStore service.SessionRepository
	StudentStore service.StudentRepository

	Accessor    *weights.Accessor
	Scorer      *scoring.Scorer
	Evaluator   *evaluate.Evaluator
	Transaction *update.Transaction
	Recommender *casestudy.Recommender
}

// InitComponents wires the full engine over a connected Redis client.
func InitComponents(client *redis.Client, evalConfig evaluate.Config) *Components {
	weightStore := service.NewRedisWeightStore(client, service.RedisWeightStoreConfig{})
	sessionStore := service.NewRedisSessionStore(client, service.RedisSessionStoreConfig{})
	studentStore := service.NewRedisStudentStore(client, service.RedisStudentStoreConfig{})

	accessor := weights.NewAccessor(weightStore)
	scorer := scoring.NewScorer(sessionStore)
	evaluator := evaluate.NewEvaluator(scorer, studentStore, sessionStore, evalConfig)

	logrus.Infof("initialized engine components (evaluation concurrency: %d)", evalConfig.Concurrency)

	return &Components{
		WeightStore:  weightStore,
		SessionStore: sessionStore,
		StudentStore: studentStore,
		Accessor:     accessor,
		Scorer:       scorer,
		Evaluator:    evaluator,
		Transaction:  update.NewTransaction(accessor, evaluator),
		Recommender:  casestudy.NewRecommender(accessor, scorer),
	}
}
