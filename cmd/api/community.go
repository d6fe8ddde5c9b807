package main

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"foodspot/internal/domain/community"
	"foodspot/internal/events"
	"foodspot/internal/params"
	"foodspot/internal/toggle"

	"github.com/google/uuid"
)

const maxCaptionLength = 2000

var errImageRequired = errors.New("image is required")

// createPostHandler godoc
//
//	@Summary		Share a photo
//	@Description	Multipart form with an "image" file and an optional "caption"
//	@Tags			community
//	@Accept			mpfd
//	@Produce		json
//	@Param			image	formData	file	true	"Photo"
//	@Param			caption	formData	string	false	"Caption"
//	@Success		201		{object}	community.Post
//	@Failure		400		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts [post]
func (app *application) createPostHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	if err := parseMultipart(w, r); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	caption := strings.TrimSpace(r.FormValue("caption"))
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		app.badRequestResponse(w, r, errors.New("caption is too long"))
		return
	}

	files := r.MultipartForm.File["image"]
	if len(files) != 1 {
		app.badRequestResponse(w, r, errImageRequired)
		return
	}

	urls, err := app.uploadImages(r.Context(), []*multipart.FileHeader{files[0]}, foodImagesFolder, "post_"+identity.UserID.String())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	post := &community.Post{
		UserID:   identity.UserID,
		ImageURL: urls[0],
		Caption:  caption,
	}
	if err := app.store.Community.CreatePost(r.Context(), post); err != nil {
		app.cleanupUploads(urls)
		app.internalServerError(w, r, err)
		return
	}

	app.bus.PostCreated.Publish(events.PostCreated{PostID: post.ID, AuthorID: post.UserID, At: time.Now()})
	app.jsonResponse(w, http.StatusCreated, post)
}

// feedHandler godoc
//
//	@Summary		Community feed
//	@Tags			community
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{array}		community.Post
//	@Security		ApiKeyAuth
//	@Router			/community/posts [get]
func (app *application) feedHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	posts, err := app.store.Community.ListFeed(r.Context(), identity.UserID, p.Limit+1, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, posts)
}

// savedPostsHandler godoc
//
//	@Summary		Saved posts
//	@Tags			community
//	@Produce		json
//	@Param			page	query		int	false	"Page"
//	@Param			limit	query		int	false	"Page size"
//	@Success		200		{array}		community.Post
//	@Security		ApiKeyAuth
//	@Router			/community/posts/saved [get]
func (app *application) savedPostsHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)
	p := params.ParsePagination(r.URL.Query())

	posts, err := app.store.Community.ListSaved(r.Context(), identity.UserID, p.Limit+1, p.Offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	writePage(w, p, posts)
}

// getPostHandler godoc
//
//	@Summary		Get a post
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	community.Post
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID} [get]
func (app *application) getPostHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	postID, err := idParam(r, "postID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	post, err := app.store.Community.GetPost(r.Context(), postID, identity.UserID)
	if err != nil {
		if errors.Is(err, community.ErrPostNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, post)
}

// ownerOrModerator reports whether the caller may remove content owned by
// owner.
func (app *application) ownerOrModerator(r *http.Request, owner uuid.UUID) (bool, error) {
	identity := getIdentityFromContext(r)
	if identity.UserID == owner {
		return true, nil
	}
	return app.isModerator(r, identity)
}

// deletePostHandler godoc
//
//	@Summary		Delete a post
//	@Description	Authors may delete their own posts, moderators any post
//	@Tags			community
//	@Param			postID	path	int	true	"Post ID"
//	@Success		204
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID} [delete]
func (app *application) deletePostHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	post, err := app.store.Community.GetPost(r.Context(), postID, getIdentityFromContext(r).UserID)
	if err != nil {
		if errors.Is(err, community.ErrPostNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	allowed, err := app.ownerOrModerator(r, post.UserID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !allowed {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Community.DeletePost(r.Context(), postID); err != nil {
		if errors.Is(err, community.ErrPostNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.deletePhotoFromCloudinary(r.Context(), post.ImageURL); err != nil {
		app.logger.Warnw("failed to delete post image", "post_id", postID, "error", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (app *application) postRelation(w http.ResponseWriter, r *http.Request, kind toggle.Kind, on bool) {
	identity := getIdentityFromContext(r)

	postID, err := idParam(r, "postID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	key := toggle.Key{UserID: identity.UserID, Kind: kind, EntityID: postID}
	app.setRelation(w, r, key, on, func(ctx context.Context, desired bool) error {
		if kind == toggle.Like {
			return app.store.Community.SetLike(ctx, postID, identity.UserID, desired)
		}
		return app.store.Community.SetSaved(ctx, postID, identity.UserID, desired)
	})
}

// likePostHandler godoc
//
//	@Summary		Like a post
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	toggle.Outcome
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/like [put]
func (app *application) likePostHandler(w http.ResponseWriter, r *http.Request) {
	app.postRelation(w, r, toggle.Like, true)
}

// unlikePostHandler godoc
//
//	@Summary		Remove a like
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	toggle.Outcome
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/like [delete]
func (app *application) unlikePostHandler(w http.ResponseWriter, r *http.Request) {
	app.postRelation(w, r, toggle.Like, false)
}

// savePostHandler godoc
//
//	@Summary		Save a post
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	toggle.Outcome
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/save [put]
func (app *application) savePostHandler(w http.ResponseWriter, r *http.Request) {
	app.postRelation(w, r, toggle.Saved, true)
}

// unsavePostHandler godoc
//
//	@Summary		Unsave a post
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{object}	toggle.Outcome
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/save [delete]
func (app *application) unsavePostHandler(w http.ResponseWriter, r *http.Request) {
	app.postRelation(w, r, toggle.Saved, false)
}

type createCommentPayload struct {
	Body string `json:"body" validate:"required,max=1000"`
}

// createCommentHandler godoc
//
//	@Summary		Comment on a post
//	@Tags			community
//	@Accept			json
//	@Produce		json
//	@Param			postID	path		int						true	"Post ID"
//	@Param			payload	body		createCommentPayload	true	"Comment"
//	@Success		201		{object}	community.Comment
//	@Failure		404		{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/comments [post]
func (app *application) createCommentHandler(w http.ResponseWriter, r *http.Request) {
	identity := getIdentityFromContext(r)

	postID, err := idParam(r, "postID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload createCommentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	payload.Body = strings.TrimSpace(payload.Body)
	if err := validateStruct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comment := &community.Comment{PostID: postID, UserID: identity.UserID, Body: payload.Body}
	if err := app.store.Community.AddComment(r.Context(), comment); err != nil {
		if errors.Is(err, community.ErrPostNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, comment)
}

// listCommentsHandler godoc
//
//	@Summary		List comments of a post
//	@Tags			community
//	@Produce		json
//	@Param			postID	path		int	true	"Post ID"
//	@Success		200		{array}		community.Comment
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/comments [get]
func (app *application) listCommentsHandler(w http.ResponseWriter, r *http.Request) {
	postID, err := idParam(r, "postID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	comments, err := app.store.Community.ListComments(r.Context(), postID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, comments)
}

// deleteCommentHandler godoc
//
//	@Summary		Delete a comment
//	@Description	Authors may delete their own comments, moderators any comment
//	@Tags			community
//	@Param			commentID	path	int	true	"Comment ID"
//	@Success		204
//	@Failure		403	{object}	error
//	@Failure		404	{object}	error
//	@Security		ApiKeyAuth
//	@Router			/community/posts/{postID}/comments/{commentID} [delete]
func (app *application) deleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	commentID, err := idParam(r, "commentID")
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	author, err := app.store.Community.CommentAuthor(r.Context(), commentID)
	if err != nil {
		if errors.Is(err, community.ErrCommentNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	allowed, err := app.ownerOrModerator(r, author)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !allowed {
		app.forbiddenResponse(w, r)
		return
	}

	if err := app.store.Community.DeleteComment(r.Context(), commentID); err != nil {
		if errors.Is(err, community.ErrCommentNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
