package databricks

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"

	"github.com/databricks/databricks-sdk-go/service/files"
	"github.com/pkg/errors"
)

// dbfsBlockSize is the largest block accepted by the DBFS add-block endpoint.
const dbfsBlockSize = 1 << 20

// PutFile streams r to the DBFS file at path through a DBFS handle.
func (c *Client) PutFile(ctx context.Context, path string, r io.Reader, overwrite bool) error {
	var handle int64
	err := c.call(ctx, http.MethodPost, "/api/2.0/dbfs/create", func(ctx context.Context) error {
		res, err := c.ws.Dbfs.Create(ctx, files.Create{Path: path, Overwrite: overwrite})
		if err != nil {
			return err
		}
		handle = res.Handle
		return nil
	})
	if err != nil {
		return err
	}

	if err := c.addBlocks(ctx, handle, r); err != nil {
		// Release the handle, the upload is lost either way.
		_ = c.closeHandle(ctx, handle)
		return errors.Wrapf(err, "upload %v", path)
	}

	return c.closeHandle(ctx, handle)
}

func (c *Client) addBlocks(ctx context.Context, handle int64, r io.Reader) error {
	buf := make([]byte, dbfsBlockSize)
	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			block := files.AddBlock{Handle: handle, Data: base64.StdEncoding.EncodeToString(buf[:n])}
			err := c.call(ctx, http.MethodPost, "/api/2.0/dbfs/add-block", func(ctx context.Context) error {
				return c.ws.Dbfs.AddBlock(ctx, block)
			})
			if err != nil {
				return err
			}
		}

		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			return err
		}
	}
}

func (c *Client) closeHandle(ctx context.Context, handle int64) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/dbfs/close", func(ctx context.Context) error {
		return c.ws.Dbfs.Close(ctx, files.Close{Handle: handle})
	})
}

// DeletePath deletes the DBFS file or directory at path.
func (c *Client) DeletePath(ctx context.Context, path string, recursive bool) error {
	return c.call(ctx, http.MethodPost, "/api/2.0/dbfs/delete", func(ctx context.Context) error {
		return c.ws.Dbfs.Delete(ctx, files.Delete{Path: path, Recursive: recursive})
	})
}
