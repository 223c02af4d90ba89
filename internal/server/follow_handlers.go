package server

import (
	"context"

	"yatube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowIndex lists posts by the authors the current user follows.
func (s *Server) FollowIndex(c *fiber.Ctx) error {
	uid, _ := currentUser(c)
	page, err := s.postService.Feed(c.UserContext(), uid, c.Query("page"))
	if err != nil {
		return err
	}
	if err := s.attachCommentCounts(c, page.Items); err != nil {
		return err
	}
	return s.render(c, "posts/follow", "Подписки", fiber.Map{"Page": page})
}

// ProfileFollow subscribes the current user to the profile's author.
// Following yourself or someone already followed changes nothing.
func (s *Server) ProfileFollow(c *fiber.Ctx) error {
	return s.toggleFollow(c, s.followService.Follow)
}

// ProfileUnfollow removes the subscription, if any.
func (s *Server) ProfileUnfollow(c *fiber.Ctx) error {
	return s.toggleFollow(c, s.followService.Unfollow)
}

type followAction func(ctx context.Context, userID uint, username string) (*models.User, error)

func (s *Server) toggleFollow(c *fiber.Ctx, action followAction) error {
	uid, _ := currentUser(c)
	author, err := action(c.UserContext(), uid, c.Params("username"))
	if err != nil {
		return err
	}
	return c.Redirect(profileURL(author.Username), fiber.StatusFound)
}
